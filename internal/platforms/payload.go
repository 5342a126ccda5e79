// Package platforms maps a generic post intent to the provider-specific
// payload for each social network. Builders are pure: no I/O, no clock.
package platforms

import "strings"

// Video carries the subset of video metadata payload building needs.
type Video struct {
	UploadID        string
	DurationSeconds int
	Title           string
}

type Options struct {
	ContentType string
}

type Input struct {
	Video    Video
	Caption  string
	Hashtags []string
	Options  Options
}

const (
	shortFormMaxSeconds = 60
	twitterMaxRunes     = 280
	youtubeTitleRunes   = 100
)

type InstagramPayload struct {
	Text        string   `json:"text"`
	UploadIDs   []string `json:"uploadIds"`
	ContentType string   `json:"contentType"`
	ShareToFeed bool     `json:"shareToFeed"`
}

type TiktokPayload struct {
	Text           string   `json:"text"`
	UploadIDs      []string `json:"uploadIds"`
	PostType       string   `json:"postType"`
	PrivacyLevel   string   `json:"privacyLevel"`
	DisableDuet    bool     `json:"disableDuet"`
	DisableStitch  bool     `json:"disableStitch"`
	DisableComment bool     `json:"disableComment"`
}

type YoutubePayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	UploadIDs   []string `json:"uploadIds"`
	ContentType string   `json:"contentType"`
	Visibility  string   `json:"visibility"`
	MadeForKids bool     `json:"madeForKids"`
}

type FacebookPayload struct {
	Text        string   `json:"text"`
	UploadIDs   []string `json:"uploadIds"`
	ContentType string   `json:"contentType"`
}

type TwitterPayload struct {
	Text      string   `json:"text"`
	UploadIDs []string `json:"uploadIds"`
}

type LinkedinPayload struct {
	Text         string   `json:"text"`
	UploadIDs    []string `json:"uploadIds"`
	Visibility   string   `json:"visibility"`
	Reshare      bool     `json:"reshare"`
	HideFromFeed bool     `json:"hideFromFeed"`
}

type GenericPayload struct {
	Text      string   `json:"text"`
	UploadIDs []string `json:"uploadIds"`
}

type BuilderFunc func(in Input) any

var builders = map[string]BuilderFunc{
	"instagram": buildInstagram,
	"tiktok":    buildTiktok,
	"youtube":   buildYoutube,
	"facebook":  buildFacebook,
	"twitter":   buildTwitter,
	"linkedin":  buildLinkedin,
}

// BuildPayload returns the provider payload for one platform. Platforms
// without a registered builder fall through to the generic payload.
func BuildPayload(platform string, in Input) any {
	if build, ok := builders[strings.ToLower(platform)]; ok {
		return build(in)
	}
	return GenericPayload{
		Text:      FullText(in.Caption, in.Hashtags),
		UploadIDs: []string{in.Video.UploadID},
	}
}

// FullText appends the hashtag list to the caption, "#" prefixed and
// space separated. Captions without hashtags pass through unchanged.
func FullText(caption string, hashtags []string) string {
	if len(hashtags) == 0 {
		return caption
	}
	tags := make([]string, len(hashtags))
	for i, h := range hashtags {
		tags[i] = "#" + h
	}
	return caption + " " + strings.Join(tags, " ")
}

// videoContentType resolves the REEL/POST split shared by Instagram and
// Facebook. Exactly 60 seconds is still a POST.
func videoContentType(durationSeconds int) string {
	if durationSeconds > shortFormMaxSeconds {
		return "REEL"
	}
	return "POST"
}

func buildInstagram(in Input) any {
	return InstagramPayload{
		Text:        FullText(in.Caption, in.Hashtags),
		UploadIDs:   []string{in.Video.UploadID},
		ContentType: videoContentType(in.Video.DurationSeconds),
		ShareToFeed: true,
	}
}

func buildTiktok(in Input) any {
	return TiktokPayload{
		Text:           FullText(in.Caption, in.Hashtags),
		UploadIDs:      []string{in.Video.UploadID},
		PostType:       "TEXT",
		PrivacyLevel:   "PUBLIC_TO_EVERYONE",
		DisableDuet:    false,
		DisableStitch:  false,
		DisableComment: false,
	}
}

func buildYoutube(in Input) any {
	contentType := in.Options.ContentType
	if contentType == "" {
		if in.Video.DurationSeconds <= shortFormMaxSeconds {
			contentType = "SHORT"
		} else {
			contentType = "VIDEO"
		}
	}

	title := in.Video.Title
	if title == "" {
		title = truncateRunes(in.Caption, youtubeTitleRunes)
	}

	return YoutubePayload{
		Title:       title,
		Description: in.Caption,
		UploadIDs:   []string{in.Video.UploadID},
		ContentType: contentType,
		Visibility:  "PUBLIC",
		MadeForKids: false,
	}
}

func buildFacebook(in Input) any {
	return FacebookPayload{
		Text:        FullText(in.Caption, in.Hashtags),
		UploadIDs:   []string{in.Video.UploadID},
		ContentType: videoContentType(in.Video.DurationSeconds),
	}
}

// buildTwitter truncates the composed text to 280 characters as the last
// transformation. The cutoff is a hard one, not ellipsis-aware.
func buildTwitter(in Input) any {
	return TwitterPayload{
		Text:      truncateRunes(FullText(in.Caption, in.Hashtags), twitterMaxRunes),
		UploadIDs: []string{in.Video.UploadID},
	}
}

func buildLinkedin(in Input) any {
	return LinkedinPayload{
		Text:         FullText(in.Caption, in.Hashtags),
		UploadIDs:    []string{in.Video.UploadID},
		Visibility:   "PUBLIC",
		Reshare:      false,
		HideFromFeed: false,
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
