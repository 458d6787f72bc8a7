package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manash/thumbchat/internal/conversation"
	"github.com/manash/thumbchat/internal/imaging"
	"github.com/manash/thumbchat/internal/provider"
	"github.com/manash/thumbchat/internal/router"
	"github.com/manash/thumbchat/internal/usage"
)

// Submitter runs one submission end to end: route, normalize, call the
// remote service, and extend the session. At most one submission is in
// flight at a time; later submissions are rejected, not queued.
type Submitter struct {
	provider provider.Provider
	session  *conversation.Session
	ledger   *usage.Store // optional; ledger errors never fail a submission
	model    string
	logger   *slog.Logger
}

func NewSubmitter(p provider.Provider, sess *conversation.Session, ledger *usage.Store, model string, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{
		provider: p,
		session:  sess,
		ledger:   ledger,
		model:    model,
		logger:   logger,
	}
}

// Submit processes one user turn and returns the appended bot turn.
// On failure the history is untouched; in both cases the pending upload
// and typed text are consumed.
func (s *Submitter) Submit(ctx context.Context, text string) (conversation.Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return conversation.Turn{}, router.ErrEmptyText
	}

	if err := s.session.Begin(); err != nil {
		return conversation.Turn{}, err
	}

	bot, err := s.submit(ctx, text)
	if err != nil {
		s.session.Fail(err)
		return conversation.Turn{}, err
	}
	return bot, nil
}

func (s *Submitter) submit(ctx context.Context, text string) (conversation.Turn, error) {
	upload := s.session.PendingUpload()

	if upload != nil {
		data, mime, err := imaging.Normalize(upload.Data, upload.MIME)
		if err != nil {
			return conversation.Turn{}, err
		}
		upload.Data = data
		upload.MIME = mime
	}

	in := router.Input{
		Text:   text,
		Upload: upload,
		Recent: s.session.History().RecentWindow(router.ContextWindow),
	}
	if last, ok := s.session.History().LastBotTurnWithImage(); ok {
		in.LastBotImage = &last
	}

	decision, err := router.Route(in)
	if err != nil {
		return conversation.Turn{}, err
	}

	s.logger.Debug("routed submission",
		"kind", string(decision.Kind),
		"has_upload", upload != nil,
		"history_len", s.session.History().Len())

	var result *provider.Result
	switch decision.Kind {
	case router.KindGenerate:
		result, err = s.provider.Generate(ctx, &provider.GenerateRequest{Prompt: decision.Prompt})
	default:
		result, err = s.provider.Edit(ctx, &provider.EditRequest{
			Image:  decision.BaseImage,
			MIME:   decision.BaseMIME,
			Prompt: decision.Prompt,
		})
	}
	if err != nil {
		return conversation.Turn{}, err
	}

	var userImg *conversation.Image
	if upload != nil {
		userImg = &conversation.Image{
			Data:       upload.Data,
			MIME:       upload.MIME,
			SourcePath: upload.Path,
			Width:      upload.Width,
			Height:     upload.Height,
		}
	}

	botImg := &conversation.Image{Data: result.Image, MIME: "image/png"}
	if w, h, err := imaging.Dimensions(result.Image); err == nil {
		botImg.Width, botImg.Height = w, h
	}

	_, bot, err := s.session.Succeed(text, userImg, botCaption(decision.Kind), botImg)
	if err != nil {
		return conversation.Turn{}, err
	}

	s.recordUsage(ctx, decision.Kind, result.Usage)
	return bot, nil
}

func (s *Submitter) recordUsage(ctx context.Context, kind router.Kind, u provider.Usage) {
	if s.ledger == nil {
		return
	}
	op := "edit"
	if kind == router.KindGenerate {
		op = "generate"
	}
	err := s.ledger.Record(ctx, &usage.Entry{
		SessionID:    s.session.ID,
		Operation:    op,
		Model:        s.model,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	})
	if err != nil {
		s.logger.Warn("failed to record usage", "error", err)
	}
}

func botCaption(kind router.Kind) string {
	if kind == router.KindGenerate {
		return "Here's your generated thumbnail:"
	}
	return "Here's your edited thumbnail:"
}

// LoadUpload reads and validates a local file as the pending upload. A
// non-image file is rejected before any network interaction.
func LoadUpload(path string, data []byte) (*conversation.Upload, error) {
	if !imaging.IsImage(data) {
		return nil, fmt.Errorf("%w: %s", imaging.ErrNotAnImage, path)
	}

	u := &conversation.Upload{
		Path: path,
		Data: data,
		MIME: imaging.Sniff(data),
	}
	if w, h, err := imaging.Dimensions(data); err == nil {
		u.Width, u.Height = w, h
	}
	return u, nil
}
