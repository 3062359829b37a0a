package model

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// ContactInfo is the structured contact block of a profile.
type ContactInfo struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
	Address string `json:"address,omitempty"`
}

var (
	emailRe   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	websiteRe = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s,;]+`)
	phoneRe   = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
)

// ContactFromString normalizes a free-text contact line into the structured
// form. The full text is kept as the address; email, website and phone are
// lifted out when present.
func ContactFromString(s string) ContactInfo {
	s = strings.TrimSpace(s)
	return ContactInfo{
		Phone:   strings.TrimSpace(phoneRe.FindString(s)),
		Email:   emailRe.FindString(s),
		Website: websiteRe.FindString(s),
		Address: s,
	}
}

// UnmarshalJSON accepts either a contact object or a plain string.
func (c *ContactInfo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ContactInfo{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "contact: decode string")
		}
		*c = ContactFromString(s)
		return nil
	}
	type plain ContactInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return eris.Wrap(err, "contact: decode object")
	}
	*c = ContactInfo(p)
	return nil
}
