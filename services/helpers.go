package services

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Типы live-сообщений, рассылаемых в комнату события.
const (
	MsgTeamAssigned         = "TEAM_ASSIGNED"
	MsgTeamUnassigned       = "TEAM_UNASSIGNED"
	MsgParticipationUpdated = "PARTICIPATION_UPDATED"
	MsgBibAssigned          = "BIB_ASSIGNED"
)

// EventPublisher pushes a change notification to everyone watching an event.
type EventPublisher interface {
	PublishToEvent(eventID int, msgType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) PublishToEvent(int, string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

var (
	cnicPattern  = regexp.MustCompile(`^[0-9]{13}$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// normalizeOptional trims s and turns an empty value into nil.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// uniqueStrings trims values and drops empties and duplicates, keeping first-seen order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GetExtensionFromContentType maps an uploaded slip's content type to a file extension.
func GetExtensionFromContentType(contentType, filename string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	case "application/pdf":
		return ".pdf", nil
	case "application/octet-stream", "":
		switch ext := strings.ToLower(filepath.Ext(filename)); ext {
		case ".jpg", ".jpeg", ".png", ".webp", ".pdf":
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported content type '%s'", ErrInvalidFileType, contentType)
}
