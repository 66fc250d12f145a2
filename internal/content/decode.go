package content

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/socialsphere/composer-backend/pkg/enums"
)

type generationPayload struct {
	YouTube   *youtubePayload   `json:"youtube"`
	TikTok    *tiktokPayload    `json:"tiktok"`
	Instagram *instagramPayload `json:"instagram"`
	X         *xPayload         `json:"x"`
}

type youtubePayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Privacy     string   `json:"privacyStatus"`
}

type tiktokPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

type instagramPayload struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

type xPayload struct {
	Tweet    string   `json:"tweet"`
	Hashtags []string `json:"hashtags"`
}

// DecodeBundle parses a generation response body into one draft per platform.
// The decode is atomic: any platform missing, or any mandatory field absent,
// fails the whole bundle. The single contract default is YouTube's
// privacyStatus, which falls back to "public" when the response omits it.
func DecodeBundle(data []byte) (Bundle, error) {
	var payload generationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("malformed generation response: %w", err)
	}

	bundle := make(Bundle, 4)

	if payload.YouTube == nil {
		return nil, missingPlatform(enums.PlatformYouTube)
	}
	if err := requireFields(enums.PlatformYouTube, map[string]bool{
		"title":       present(payload.YouTube.Title),
		"description": present(payload.YouTube.Description),
		"tags":        payload.YouTube.Tags != nil,
	}); err != nil {
		return nil, err
	}
	privacy := enums.PrivacyStatusPublic
	if strings.TrimSpace(payload.YouTube.Privacy) != "" {
		parsed, err := enums.ParsePrivacyStatus(payload.YouTube.Privacy)
		if err != nil {
			return nil, fmt.Errorf("youtube: %w", err)
		}
		privacy = parsed
	}
	bundle[enums.PlatformYouTube] = &YouTube{
		Title:       payload.YouTube.Title,
		Description: payload.YouTube.Description,
		Tags:        cloneList(payload.YouTube.Tags),
		Privacy:     privacy,
	}

	if payload.TikTok == nil {
		return nil, missingPlatform(enums.PlatformTikTok)
	}
	if err := requireFields(enums.PlatformTikTok, map[string]bool{
		"title":       present(payload.TikTok.Title),
		"description": present(payload.TikTok.Description),
		"hashtags":    payload.TikTok.Hashtags != nil,
	}); err != nil {
		return nil, err
	}
	bundle[enums.PlatformTikTok] = &TikTok{
		Title:       payload.TikTok.Title,
		Description: payload.TikTok.Description,
		Hashtags:    cloneList(payload.TikTok.Hashtags),
	}

	if payload.Instagram == nil {
		return nil, missingPlatform(enums.PlatformInstagram)
	}
	if err := requireFields(enums.PlatformInstagram, map[string]bool{
		"caption":  present(payload.Instagram.Caption),
		"hashtags": payload.Instagram.Hashtags != nil,
	}); err != nil {
		return nil, err
	}
	bundle[enums.PlatformInstagram] = &Instagram{
		Caption:  payload.Instagram.Caption,
		Hashtags: cloneList(payload.Instagram.Hashtags),
	}

	if payload.X == nil {
		return nil, missingPlatform(enums.PlatformX)
	}
	if err := requireFields(enums.PlatformX, map[string]bool{
		"tweet":    present(payload.X.Tweet),
		"hashtags": payload.X.Hashtags != nil,
	}); err != nil {
		return nil, err
	}
	bundle[enums.PlatformX] = &X{
		Tweet:    payload.X.Tweet,
		Hashtags: cloneList(payload.X.Hashtags),
	}

	return bundle, nil
}

func present(value string) bool {
	return strings.TrimSpace(value) != ""
}

func missingPlatform(platform enums.Platform) error {
	return fmt.Errorf("response missing %s content", platform)
}

func requireFields(platform enums.Platform, fields map[string]bool) error {
	missing := []string{}
	for name, ok := range fields {
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	// Deterministic order for error messages and tests.
	sort.Strings(missing)
	return fmt.Errorf("%s content missing %s", platform, strings.Join(missing, ", "))
}
