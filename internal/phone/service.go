// Package phone implements the phone side of the relay: it answers the
// watch's translation requests, health probes, credit queries, and
// language syncs over a transport session.
package phone

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voicebridge/watchlink/internal/protocol"
	"github.com/voicebridge/watchlink/internal/store"
	"github.com/voicebridge/watchlink/internal/translate"
	"github.com/voicebridge/watchlink/internal/transport"
)

const defaultTranslationCost = 1

type Config struct {
	// DeviceID identifies the paired watch; it keys the credit account.
	DeviceID string
	// CostPerTranslation is the credits debited per request. Defaults to 1.
	CostPerTranslation int64
	// TranslateTimeout bounds one backend round trip. Defaults to 30s.
	TranslateTimeout time.Duration
	Logger           *logrus.Logger
}

type Service struct {
	session    transport.Session
	credits    *store.CreditStore
	history    *store.HistoryStore
	languages  *store.LanguageStore
	translator translate.Translator
	speech     translate.Speech
	account    store.Account
	cost       int64
	timeout    time.Duration
	logger     *logrus.Logger

	done         chan struct{}
	closeOnce    sync.Once
	disconnected chan struct{}
	discOnce     sync.Once
	wg           sync.WaitGroup
}

func NewService(
	session transport.Session,
	credits *store.CreditStore,
	history *store.HistoryStore,
	languages *store.LanguageStore,
	translator translate.Translator,
	speech translate.Speech,
	cfg Config,
) (*Service, error) {
	account, err := credits.GetOrCreateAccount(cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	cost := cfg.CostPerTranslation
	if cost == 0 {
		cost = defaultTranslationCost
	}
	timeout := cfg.TranslateTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &Service{
		session:      session,
		credits:      credits,
		history:      history,
		languages:    languages,
		translator:   translator,
		speech:       speech,
		account:      account,
		cost:         cost,
		timeout:      timeout,
		logger:       logger,
		done:         make(chan struct{}),
		disconnected: make(chan struct{}),
	}, nil
}

func (s *Service) Start(ctx context.Context) error {
	if err := s.session.Activate(ctx); err != nil {
		return err
	}
	s.wg.Add(1)
	go s.run()
	return nil
}

// Close stops the event loop and waits for in-flight translations.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

// Disconnected is closed when the watch drops. Connection-scoped callers
// use it to tear the service down.
func (s *Service) Disconnected() <-chan struct{} {
	return s.disconnected
}

func (s *Service) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.session.Events():
			if !ok {
				return
			}
			switch ev.Kind {
			case transport.EventReachability:
				s.logger.Infof("Watch reachable: %v", ev.Reachable)
				if !ev.Reachable {
					s.discOnce.Do(func() { close(s.disconnected) })
				}
			case transport.EventReceived:
				s.handleMessage(ev.Msg)
			}
		}
	}
}

func (s *Service) handleMessage(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.TranslationRequest:
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleTranslation(m)
		}()
	case *protocol.HealthProbe:
		s.reply(&protocol.HealthProbeAck{SentAt: m.SentAt})
	case *protocol.CreditsQuery:
		balance, err := s.credits.Balance(s.account.ID)
		if err != nil {
			s.logger.Errorf("Failed to read balance: %v", err)
			return
		}
		s.reply(&protocol.CreditsUpdate{RequestID: m.ID, Remaining: balance})
	case *protocol.LanguageSync:
		if err := s.languages.Save(s.account.ID, m.SourceLang, m.TargetLang); err != nil {
			s.logger.Errorf("Failed to save language pair: %v", err)
			s.reply(&protocol.Error{RequestID: m.ID, Code: protocol.ErrInternal, Message: err.Error()})
			return
		}
		s.reply(&protocol.Ack{RequestID: m.ID})
	default:
		s.logger.Warnf("Unexpected message type: %s", msg.Type())
	}
}

func (s *Service) handleTranslation(req *protocol.TranslationRequest) {
	if req.SourceLang == "" || req.TargetLang == "" {
		s.reply(&protocol.Error{
			RequestID: req.ID,
			Code:      protocol.ErrBadLanguage,
			Message:   "source and target language are required",
		})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.reply(&protocol.Error{
			RequestID: req.ID,
			Code:      protocol.ErrInvalidMsg,
			Message:   "request carries no transcript",
		})
		return
	}

	remaining, err := s.credits.Debit(s.account.ID, s.cost)
	if errors.Is(err, store.ErrInsufficientCredits) {
		s.logger.Warnf("Request %s rejected: no credits", req.ID)
		s.reply(&protocol.Error{
			RequestID: req.ID,
			Code:      protocol.ErrNoCredits,
			Message:   "translation credits exhausted",
		})
		return
	}
	if err != nil {
		s.reply(&protocol.Error{RequestID: req.ID, Code: protocol.ErrInternal, Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	translated, err := s.translator.Translate(ctx, req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		s.logger.Errorf("Translation failed for %s: %v", req.ID, err)
		// The user keeps the credit when we could not deliver.
		if _, gerr := s.credits.Grant(s.account.ID, s.cost); gerr != nil {
			s.logger.Errorf("Failed to refund credit for %s: %v", req.ID, gerr)
		}
		s.reply(&protocol.Error{
			RequestID: req.ID,
			Code:      protocol.ErrTranslateFailed,
			Message:   err.Error(),
		})
		return
	}

	var audio []byte
	if s.speech != nil {
		audio, err = s.speech.Synthesize(ctx, translated, req.TargetLang)
		if err != nil {
			s.logger.Warnf("Speech synthesis failed for %s: %v", req.ID, err)
			audio = nil
		}
		if len(audio) > protocol.MaxInlineAudio {
			s.logger.Warnf("Synthesized audio for %s too large to inline (%d bytes)", req.ID, len(audio))
			audio = nil
		}
	}

	if err := s.history.Record(s.account.ID, req.ID, req.SourceLang, req.TargetLang, req.Text, translated); err != nil {
		s.logger.Errorf("Failed to record history for %s: %v", req.ID, err)
	}

	s.reply(&protocol.TranslationResponse{
		RequestID:        req.ID,
		TranscribedText:  req.Text,
		TranslatedText:   translated,
		Audio:            audio,
		CreditsRemaining: remaining,
	})
}

func (s *Service) reply(msg protocol.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.session.Send(ctx, msg); err != nil {
		s.logger.Errorf("Failed to send %s: %v", msg.Type(), err)
	}
}
