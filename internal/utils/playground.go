package utils

import (
	"regexp"
	"strings"
)

// PhotoBaseURL serves catalogue photos by id.
const PhotoBaseURL = "https://op.mos.ru/MEDIA/showFile?id="

var parkValueRe = regexp.MustCompile(`value=([^}]+)`)

// CleanParkName extracts the display name from catalogue values such as
// "{global_id=4331863, value=Парк «50-летия Октября»}".  Other values are
// returned trimmed; empty input and "[]" yield "".
func CleanParkName(raw string) string {
	if raw == "" || raw == "[]" {
		return ""
	}
	if m := parkValueRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// CleanParkNamePtr is CleanParkName for nullable columns; an empty result
// becomes nil.
func CleanParkNamePtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	name := CleanParkName(*raw)
	if name == "" {
		return nil
	}
	return &name
}

// PhotoURL returns the URL of the first "photo:<id>" line of the
// catalogue photo_id field, or "" when there is none.
func PhotoURL(photoField string) string {
	for _, line := range strings.Split(photoField, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < len("photo:") || !strings.EqualFold(line[:len("photo:")], "photo:") {
			continue
		}
		if id := strings.TrimSpace(line[len("photo:"):]); id != "" {
			return PhotoBaseURL + id
		}
	}
	return ""
}
