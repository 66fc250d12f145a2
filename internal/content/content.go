package content

import (
	"fmt"
	"strings"

	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
)

// Content is the per-platform draft variant. Each platform carries its own
// field set and is dispatched by identity, never by probing which field
// happens to exist.
type Content interface {
	Platform() enums.Platform
	Clone() Content
	SetField(name, value string) error
	SetListField(name, raw string) error
}

// YouTube is the draft shape published to a channel.
type YouTube struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Tags        []string            `json:"tags"`
	Privacy     enums.PrivacyStatus `json:"privacyStatus"`
}

func (c *YouTube) Platform() enums.Platform { return enums.PlatformYouTube }

func (c *YouTube) Clone() Content {
	clone := *c
	clone.Tags = cloneList(c.Tags)
	return &clone
}

func (c *YouTube) SetField(name, value string) error {
	switch name {
	case "title":
		c.Title = value
	case "description":
		c.Description = value
	case "privacyStatus":
		privacy, err := enums.ParsePrivacyStatus(value)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid privacy status")
		}
		c.Privacy = privacy
	default:
		return unknownField(c.Platform(), name)
	}
	return nil
}

func (c *YouTube) SetListField(name, raw string) error {
	if name != "tags" {
		return unknownField(c.Platform(), name)
	}
	c.Tags = splitList(raw)
	return nil
}

// TikTok is the draft shape for a TikTok post.
type TikTok struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

func (c *TikTok) Platform() enums.Platform { return enums.PlatformTikTok }

func (c *TikTok) Clone() Content {
	clone := *c
	clone.Hashtags = cloneList(c.Hashtags)
	return &clone
}

func (c *TikTok) SetField(name, value string) error {
	switch name {
	case "title":
		c.Title = value
	case "description":
		c.Description = value
	default:
		return unknownField(c.Platform(), name)
	}
	return nil
}

func (c *TikTok) SetListField(name, raw string) error {
	if name != "hashtags" {
		return unknownField(c.Platform(), name)
	}
	c.Hashtags = splitList(raw)
	return nil
}

// Instagram is the draft shape for an Instagram post.
type Instagram struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

func (c *Instagram) Platform() enums.Platform { return enums.PlatformInstagram }

func (c *Instagram) Clone() Content {
	clone := *c
	clone.Hashtags = cloneList(c.Hashtags)
	return &clone
}

func (c *Instagram) SetField(name, value string) error {
	if name != "caption" {
		return unknownField(c.Platform(), name)
	}
	c.Caption = value
	return nil
}

func (c *Instagram) SetListField(name, raw string) error {
	if name != "hashtags" {
		return unknownField(c.Platform(), name)
	}
	c.Hashtags = splitList(raw)
	return nil
}

// X is the draft shape for a post on X.
type X struct {
	Tweet    string   `json:"tweet"`
	Hashtags []string `json:"hashtags"`
}

func (c *X) Platform() enums.Platform { return enums.PlatformX }

func (c *X) Clone() Content {
	clone := *c
	clone.Hashtags = cloneList(c.Hashtags)
	return &clone
}

func (c *X) SetField(name, value string) error {
	if name != "tweet" {
		return unknownField(c.Platform(), name)
	}
	c.Tweet = value
	return nil
}

func (c *X) SetListField(name, raw string) error {
	if name != "hashtags" {
		return unknownField(c.Platform(), name)
	}
	c.Hashtags = splitList(raw)
	return nil
}

// Bundle holds exactly one content variant per supported platform.
type Bundle map[enums.Platform]Content

// Clone deep-copies the bundle so consumers never share slices.
func (b Bundle) Clone() Bundle {
	out := make(Bundle, len(b))
	for platform, draft := range b {
		out[platform] = draft.Clone()
	}
	return out
}

// splitList applies the overlay's comma-split semantics: trim each element,
// keep empty segments as empty strings rather than repairing them.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, len(parts))
	for i, part := range parts {
		out[i] = strings.TrimSpace(part)
	}
	return out
}

func cloneList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func unknownField(platform enums.Platform, name string) error {
	return pkgerrors.New(pkgerrors.CodeUnknownField, fmt.Sprintf("field %q does not exist on %s content", name, platform))
}
