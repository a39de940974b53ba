package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"circuitbot/internal/ai"
	"circuitbot/internal/models"
	"circuitbot/internal/preferences"
	"circuitbot/internal/prompt"
	"circuitbot/internal/search"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	noReplyText = "(no reply)"

	maxTokensDefault = 800
	maxTokensDeep    = 2000

	temperatureSingle     float32 = 0.7
	temperatureSingleDeep float32 = 0.5
	temperatureA          float32 = 0.5
	temperatureADeep      float32 = 0.4
	temperatureB          float32 = 0.9
	temperatureBDeep      float32 = 0.7

	defaultPreviewText  = "Hello! This is a sample of my voice."
	defaultPreviewVoice = "alloy"
	defaultVoiceSpeed   = 1.0
	defaultSearchLimit  = 5
)

// ChatService - операции чата, доступные HTTP слою.
type ChatService interface {
	CompleteSingle(ctx context.Context, conversation []models.ConversationTurn, opts models.ChatOptions) (models.SingleReply, error)
	CompleteVariantPair(ctx context.Context, conversation []models.ConversationTurn, opts models.ChatOptions) (models.VariantPair, error)
	CommitVariant(ctx context.Context, choice models.FeedbackChoice) (models.StyleCounter, error)
	PreviewSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error)
}

// ModelResolver подставляет модель по умолчанию вместо неразрешенной.
type ModelResolver interface {
	Resolve(hint string) string
}

// Settings - настраиваемые параметры диспетчера.
type Settings struct {
	SearchMaxResults int
	DefaultVoice     string
}

// Dispatcher строит промты и раздает запросы провайдеру в режиме одного ответа и A/B.
type Dispatcher struct {
	completer ai.Completer
	speech    ai.SpeechSynthesizer
	searcher  search.Searcher
	prefs     preferences.Store
	models    ModelResolver
	settings  Settings
	logger    *zap.Logger
	now       func() time.Time
}

var _ ChatService = (*Dispatcher)(nil)

// NewDispatcher создает диспетчер.
func NewDispatcher(
	completer ai.Completer,
	speech ai.SpeechSynthesizer,
	searcher search.Searcher,
	prefs preferences.Store,
	resolver ModelResolver,
	settings Settings,
	logger *zap.Logger,
) *Dispatcher {
	if settings.SearchMaxResults <= 0 {
		settings.SearchMaxResults = defaultSearchLimit
	}
	if settings.DefaultVoice == "" {
		settings.DefaultVoice = defaultPreviewVoice
	}
	return &Dispatcher{
		completer: completer,
		speech:    speech,
		searcher:  searcher,
		prefs:     prefs,
		models:    resolver,
		settings:  settings,
		logger:    logger.Named("Dispatcher"),
		now:       time.Now,
	}
}

// CompleteSingle возвращает один ответ с учетом склонности пользователя.
func (d *Dispatcher) CompleteSingle(ctx context.Context, conversation []models.ConversationTurn, opts models.ChatOptions) (models.SingleReply, error) {
	if len(conversation) == 0 {
		return models.SingleReply{}, fmt.Errorf("%w: %w", models.ErrInvalidInput, models.ErrEmptyConversation)
	}
	log := d.logger.With(zap.String("userID", opts.UserID), zap.String("mode", "single"))

	model := d.models.Resolve(opts.ModelHint)
	leaning := d.prefs.Leaning(ctx, opts.UserID)
	params := d.promptParams(ctx, conversation, opts)
	system := prompt.Single(leaning, params)

	temperature := temperatureSingle
	if opts.DeepResearch {
		temperature = temperatureSingleDeep
	}

	text, err := d.completer.Complete(ctx, ai.CompletionRequest{
		Model:       model,
		Messages:    buildMessages(system, conversation, opts.ScreenImage),
		Temperature: temperature,
		MaxTokens:   maxTokens(opts.DeepResearch),
		UserID:      opts.UserID,
	})
	if err != nil {
		completionsTotal.WithLabelValues(modeSingle, statusError).Inc()
		log.Error("Single completion failed", zap.String("model", model), zap.Error(err))
		return models.SingleReply{}, err
	}
	completionsTotal.WithLabelValues(modeSingle, statusSuccess).Inc()

	text = strings.TrimSpace(text)
	if text == "" {
		text = noReplyText
	}

	reply := models.SingleReply{Text: text, Model: model}
	if wantsAudio(opts) {
		reply.AudioURL = d.synthesize(ctx, log, text, opts)
	}
	log.Info("Single reply ready",
		zap.String("model", model),
		zap.String("leaning", string(leaning)),
		zap.Int("length", len(text)),
		zap.Bool("audio", reply.AudioURL != nil),
	)
	return reply, nil
}

// CompleteVariantPair параллельно строит два варианта: A краткий, B подробный.
// Ошибка любого из вызовов проваливает всю пару.
func (d *Dispatcher) CompleteVariantPair(ctx context.Context, conversation []models.ConversationTurn, opts models.ChatOptions) (models.VariantPair, error) {
	if len(conversation) == 0 {
		return models.VariantPair{}, fmt.Errorf("%w: %w", models.ErrInvalidInput, models.ErrEmptyConversation)
	}
	log := d.logger.With(zap.String("userID", opts.UserID), zap.String("mode", "pair"))

	model := d.models.Resolve(opts.ModelHint)
	params := d.promptParams(ctx, conversation, opts)
	leaning := d.prefs.Leaning(ctx, opts.UserID)

	pair := models.VariantPair{
		Model:   model,
		Leaning: leaning,
		Variants: [2]models.Variant{
			{ID: models.VariantA, Style: models.StyleConcise},
			{ID: models.VariantB, Style: models.StyleDetailed},
		},
	}
	temperatures := [2]float32{temperatureA, temperatureB}
	if opts.DeepResearch {
		temperatures = [2]float32{temperatureADeep, temperatureBDeep}
	}

	start := d.now()
	g, gctx := errgroup.WithContext(ctx)
	for i := range pair.Variants {
		v := &pair.Variants[i]
		req := ai.CompletionRequest{
			Model:       model,
			Messages:    buildMessages(prompt.Variant(v.Style, params), conversation, opts.ScreenImage),
			Temperature: temperatures[i],
			MaxTokens:   maxTokens(opts.DeepResearch),
			UserID:      opts.UserID,
		}
		g.Go(func() error {
			text, err := d.completer.Complete(gctx, req)
			if err != nil {
				return fmt.Errorf("variant %s: %w", v.ID, err)
			}
			v.Text = strings.TrimSpace(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		completionsTotal.WithLabelValues(modePair, statusError).Inc()
		log.Error("Variant pair failed", zap.String("model", model), zap.Error(err))
		return models.VariantPair{}, err
	}
	pair.ResponseTime = roundHundredths(d.now().Sub(start).Seconds())
	completionsTotal.WithLabelValues(modePair, statusSuccess).Inc()
	pairDuration.Observe(pair.ResponseTime)

	if wantsAudio(opts) {
		var wg sync.WaitGroup
		for i := range pair.Variants {
			v := &pair.Variants[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				v.AudioURL = d.synthesize(ctx, log.With(zap.String("variant", v.ID)), v.Text, opts)
			}()
		}
		wg.Wait()
	}

	log.Info("Variant pair ready",
		zap.String("model", model),
		zap.Float64("responseTime", pair.ResponseTime),
		zap.Int("lengthA", len(pair.Variants[0].Text)),
		zap.Int("lengthB", len(pair.Variants[1].Text)),
	)
	return pair, nil
}

// CommitVariant засчитывает выбор пользователя. Некорректный выбор не трогает хранилище.
func (d *Dispatcher) CommitVariant(ctx context.Context, choice models.FeedbackChoice) (models.StyleCounter, error) {
	if choice.Choice != models.VariantA && choice.Choice != models.VariantB {
		return models.StyleCounter{}, fmt.Errorf("%w: %w: %q", models.ErrInvalidInput, models.ErrInvalidChoice, choice.Choice)
	}
	raw, ok := choice.Styles[choice.Choice]
	if !ok || raw == "" {
		return models.StyleCounter{}, fmt.Errorf("%w: %w", models.ErrInvalidInput, models.ErrMissingStyles)
	}
	style, err := models.ParseStyle(raw)
	if err != nil {
		return models.StyleCounter{}, err
	}

	counter := d.prefs.RecordChoice(ctx, choice.UserID, style)
	choicesTotal.WithLabelValues(choice.Choice, string(style)).Inc()
	d.logger.Info("Variant choice recorded",
		zap.String("userID", choice.UserID),
		zap.String("choice", choice.Choice),
		zap.String("style", string(style)),
		zap.Int("concise", counter.Concise),
		zap.Int("detailed", counter.Detailed),
	)
	return counter, nil
}

// PreviewSpeech озвучивает пример фразы выбранным голосом.
func (d *Dispatcher) PreviewSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if text == "" {
		text = defaultPreviewText
	}
	if voice == "" {
		voice = d.settings.DefaultVoice
	}
	if speed <= 0 {
		speed = defaultVoiceSpeed
	}
	audio, err := d.speech.Synthesize(ctx, ai.SpeechRequest{Voice: voice, Input: text, Speed: speed})
	if err != nil {
		speechTotal.WithLabelValues(statusError).Inc()
		d.logger.Error("Speech preview failed", zap.String("voice", voice), zap.Error(err))
		return nil, err
	}
	speechTotal.WithLabelValues(statusSuccess).Inc()
	return audio, nil
}

// promptParams собирает общие для обоих режимов параметры промта, включая веб-поиск.
func (d *Dispatcher) promptParams(ctx context.Context, conversation []models.ConversationTurn, opts models.ChatOptions) prompt.Params {
	now := opts.CurrentTime
	if now.IsZero() {
		now = d.now()
	}
	params := prompt.Params{
		ProfileGuide:        opts.ProfileGuide,
		DeepResearch:        opts.DeepResearch,
		ScreenSharingActive: opts.ScreenSharingActive,
		VoiceEnabled:        opts.VoiceEnabled,
		Now:                 now,
	}
	if !opts.DeepResearch {
		return params
	}
	query := lastUserText(conversation)
	if query == "" {
		return params
	}
	params.SearchResults = d.searcher.Search(ctx, query, d.settings.SearchMaxResults)
	d.logger.Debug("Deep research search", zap.String("query", query), zap.Int("results", len(params.SearchResults)))
	return params
}

// synthesize возвращает data URL аудио или nil. Ошибка синтеза только логируется.
func (d *Dispatcher) synthesize(ctx context.Context, log *zap.Logger, text string, opts models.ChatOptions) *string {
	speed := opts.VoiceSpeed
	if speed <= 0 {
		speed = defaultVoiceSpeed
	}
	audio, err := d.speech.Synthesize(ctx, ai.SpeechRequest{Voice: opts.SelectedVoice, Input: text, Speed: speed})
	if err != nil {
		speechTotal.WithLabelValues(statusError).Inc()
		log.Warn("Speech synthesis failed, replying without audio", zap.String("voice", opts.SelectedVoice), zap.Error(err))
		return nil
	}
	speechTotal.WithLabelValues(statusSuccess).Inc()
	url := ai.AudioDataURL(audio)
	return &url
}

func wantsAudio(opts models.ChatOptions) bool {
	return opts.VoiceEnabled && opts.SelectedVoice != ""
}

func maxTokens(deep bool) int {
	if deep {
		return maxTokensDeep
	}
	return maxTokensDefault
}

func roundHundredths(seconds float64) float64 {
	return math.Round(seconds*100) / 100
}
