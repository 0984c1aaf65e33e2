// Package announce renders level-up messages. Templates contain placeholder
// tokens resolved against the leveled-up member's refreshed record and
// profile; substitution applies to plain strings and recursively to every
// string field of a rich-message embed.
package announce

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"levelkit/core"
)

// Placeholder tokens recognized in templates.
const (
	TokenMention   = "[$mention]"
	TokenName      = "[$name]"
	TokenAvatarURL = "[$avatar_url]"
	TokenJoined    = "[$joined]"
	TokenXP        = "[$xp]"
	TokenTotalXP   = "[$total_xp]"
	TokenLevel     = "[$level]"
	TokenRank      = "[$rank]"
)

// DefaultMessage is used when no announcement is configured.
const DefaultMessage = "[$mention], you are now **level [$level]!**"

// Context carries the values substituted into a template.
type Context struct {
	Record  core.MemberRecord
	Profile core.MemberProfile
}

// Format performs a single pass of token substitution over template.
func Format(template string, ctx Context) string {
	rank := ""
	if ctx.Record.Rank != nil {
		rank = strconv.Itoa(*ctx.Record.Rank)
	}
	joined := ""
	if !ctx.Profile.JoinedAt.IsZero() {
		joined = ctx.Profile.JoinedAt.UTC().Format(time.RFC3339)
	}
	replacer := strings.NewReplacer(
		TokenMention, ctx.Profile.Mention(),
		TokenName, ctx.Profile.DisplayName,
		TokenAvatarURL, ctx.Profile.AvatarURL,
		TokenJoined, joined,
		TokenXP, strconv.FormatInt(ctx.Record.XP, 10),
		TokenTotalXP, strconv.FormatInt(ctx.Record.TotalXP, 10),
		TokenLevel, strconv.Itoa(ctx.Record.Level),
		TokenRank, rank,
	)
	return replacer.Replace(template)
}

// EmbedField is one titled value inside an Embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a structured rich-message payload. Only string-valued fields are
// templated; colors and numeric flags pass through untouched.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	AuthorName  string       `json:"author_name,omitempty"`
	AuthorIcon  string       `json:"author_icon,omitempty"`
	FooterText  string       `json:"footer_text,omitempty"`
	ImageURL    string       `json:"image_url,omitempty"`
	Thumbnail   string       `json:"thumbnail,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// FormatEmbed returns a copy of e with every string field templated.
func FormatEmbed(e Embed, ctx Context) Embed {
	out := e
	out.Title = Format(e.Title, ctx)
	out.Description = Format(e.Description, ctx)
	out.URL = Format(e.URL, ctx)
	out.AuthorName = Format(e.AuthorName, ctx)
	out.AuthorIcon = Format(e.AuthorIcon, ctx)
	out.FooterText = Format(e.FooterText, ctx)
	out.ImageURL = Format(e.ImageURL, ctx)
	out.Thumbnail = Format(e.Thumbnail, ctx)
	out.Fields = make([]EmbedField, len(e.Fields))
	for i, f := range e.Fields {
		out.Fields[i] = EmbedField{Name: Format(f.Name, ctx), Value: Format(f.Value, ctx), Inline: f.Inline}
	}
	return out
}

// Announcement describes one level-up message. When ChannelIDs is set, the
// first channel that exists receives the message; otherwise it goes to the
// channel the triggering message was sent in.
type Announcement struct {
	Message     string
	Embed       *Embed
	ChannelIDs  []int64
	TTS         bool
	DeleteAfter time.Duration
}

// Default returns the stock announcement.
func Default() Announcement {
	return Announcement{Message: DefaultMessage}
}

// Pick selects one announcement using the provided random source. The
// explicit source keeps selection deterministic under test.
func Pick(anns []Announcement, r *rand.Rand) Announcement {
	switch len(anns) {
	case 0:
		return Default()
	case 1:
		return anns[0]
	}
	return anns[r.Intn(len(anns))]
}

// Rendered is an announcement after token substitution, ready to send.
type Rendered struct {
	Content     string
	Embed       *Embed
	TTS         bool
	DeleteAfter time.Duration
}

// Render formats a picked announcement for sending.
func (a Announcement) Render(ctx Context) Rendered {
	out := Rendered{TTS: a.TTS, DeleteAfter: a.DeleteAfter}
	if a.Embed != nil {
		formatted := FormatEmbed(*a.Embed, ctx)
		out.Embed = &formatted
	}
	msg := a.Message
	if msg == "" && a.Embed == nil {
		msg = DefaultMessage
	}
	if msg != "" {
		out.Content = Format(msg, ctx)
	}
	return out
}
