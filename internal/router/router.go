// Package router classifies each submitted user turn into one of four
// request kinds and assembles the outbound prompt. It is a heuristic
// intent classifier substituting for explicit generate/edit controls:
// cue misfires are accepted product risk, so the rules live in one
// ordered table where precedence and cue sets stay independently
// testable.
package router

import (
	"errors"

	"github.com/manash/thumbchat/internal/conversation"
)

// Kind is the request classification for one submission.
type Kind string

const (
	// KindEditUpload edits a freshly uploaded image.
	KindEditUpload Kind = "edit-upload"
	// KindStyleEdit edits the last generated image, transferring the
	// uploaded image's visual style onto it.
	KindStyleEdit Kind = "style-edit"
	// KindFollowUpEdit edits the last generated image with no upload.
	KindFollowUpEdit Kind = "follow-up-edit"
	// KindGenerate produces a fresh image with no base.
	KindGenerate Kind = "generate"
)

var ErrEmptyText = errors.New("user text cannot be empty")

// ContextWindow is the number of recent turns consulted when building
// continuity into a new prompt: 3 user/bot exchange pairs.
const ContextWindow = 6

// Input is everything the router inspects for one submission.
type Input struct {
	Text         string
	Upload       *conversation.Upload
	LastBotImage *conversation.Turn
	Recent       []conversation.Turn
}

// Decision is the routed outbound request: which remote operation to
// invoke, the fully built prompt, and the base image for edit kinds.
type Decision struct {
	Kind      Kind
	Prompt    string
	BaseImage []byte
	BaseMIME  string
}

// rule is one row of the classification table. Rules are evaluated in
// order; the first predicate that holds decides the kind.
type rule struct {
	kind  Kind
	match func(in Input) bool
}

var rules = []rule{
	{
		kind: KindEditUpload,
		match: func(in Input) bool {
			return in.Upload != nil && !HasStyleCue(in.Text)
		},
	},
	{
		kind: KindStyleEdit,
		match: func(in Input) bool {
			return in.Upload != nil && in.LastBotImage != nil && HasStyleCue(in.Text)
		},
	},
	{
		kind: KindFollowUpEdit,
		match: func(in Input) bool {
			return in.Upload == nil && in.LastBotImage != nil && HasEditCue(in.Text)
		},
	},
	{
		kind:  KindGenerate,
		match: func(Input) bool { return true },
	},
}

// Classify runs the rule table and returns the first matching kind.
func Classify(in Input) Kind {
	for _, r := range rules {
		if r.match(in) {
			return r.kind
		}
	}
	return KindGenerate
}

// Route classifies the input and assembles the outbound prompt and base
// image. Exactly one of generate or edit is implied by the returned
// kind; KindGenerate decisions carry no base image.
func Route(in Input) (*Decision, error) {
	if in.Text == "" {
		return nil, ErrEmptyText
	}

	kind := Classify(in)
	d := &Decision{Kind: kind}

	switch kind {
	case KindEditUpload:
		d.Prompt = BuildEditPrompt(in.Text, in.Recent)
		d.BaseImage = in.Upload.Data
		d.BaseMIME = in.Upload.MIME
	case KindStyleEdit:
		// The edit call transmits only the base image; the upload is
		// referenced solely through the style-transfer instruction.
		d.Prompt = BuildStylePrompt(in.Text, in.Recent)
		d.BaseImage = in.LastBotImage.Image.Data
		d.BaseMIME = in.LastBotImage.Image.MIME
	case KindFollowUpEdit:
		d.Prompt = BuildEditPrompt(in.Text, in.Recent)
		d.BaseImage = in.LastBotImage.Image.Data
		d.BaseMIME = in.LastBotImage.Image.MIME
	case KindGenerate:
		d.Prompt = BuildGeneratePrompt(in.Text, in.Recent)
	}

	return d, nil
}
