package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"carintel/internal/apperr"
	"carintel/internal/model"
	"carintel/internal/utils"
)

// Placeholders rendered when advisory text cannot be produced
const (
	RetailUnavailable   = "Retail Price: unavailable"
	UsedUnavailable     = "Used Market: unavailable"
	KPIUnavailable      = "KPI data unavailable."
	MsgSelectionMissing = "Please select Year, Make, and Model."
)

// NeutralColor marks a score that could not be read
const NeutralColor = "#bdc3c7"

// KPI keys in display order
var kpiKeys = []string{"performance", "value", "reliability", "eco"}

var kpiLabels = map[string]string{
	"performance": "Performance",
	"value":       "Value",
	"reliability": "Reliability",
	"eco":         "Eco-Friendliness",
}

// AdvisoryOptions selects the models and limits of the advisory calls
type AdvisoryOptions struct {
	SummaryModel string
	PriceModel   string
	KPIModel     string
	Temperature  float64
	CallTimeout  time.Duration
}

// AdvisoryService builds the summary, price and KPI report of one vehicle
type AdvisoryService struct {
	generator Generator
	estimator *EstimatorService
	opts      AdvisoryOptions
	logger    *zap.Logger
}

// NewAdvisoryService creates an advisory service. generator may be nil.
func NewAdvisoryService(generator Generator, estimator *EstimatorService, opts AdvisoryOptions, logger *zap.Logger) *AdvisoryService {
	return &AdvisoryService{
		generator: generator,
		estimator: estimator,
		opts:      opts,
		logger:    logger,
	}
}

// Summary asks for a short neutral overview of the vehicle
func (s *AdvisoryService) Summary(ctx context.Context, year, makeName, modelName string) Outcome[string] {
	if s.generator == nil {
		text := fmt.Sprintf("The %s %s %s is a popular model. (No API key configured)", year, makeName, modelName)
		return Outcome[string]{Value: text, Err: ErrGeneratorDisabled, Degraded: true}
	}

	prompt := fmt.Sprintf(
		"You are an automotive advisor for Canadian buyers. Act like a car nerd. "+
			"In 2–3 sentences, summarize the %s %s %s focusing on the general public view, performance, reliability, "+
			"and everyday usability — what it's good for and what it's not ideal for. "+
			"Keep it neutral, concise, and friendly.",
		year, makeName, modelName,
	)

	return attempt(ctx, s.logger, "summary", s.opts.CallTimeout,
		func(err error) string { return fmt.Sprintf("(Summary unavailable: %s)", apperr.Message(err)) },
		func(ctx context.Context) (string, error) {
			text, err := s.generator.Generate(ctx, s.request(s.opts.SummaryModel, prompt))
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(text), nil
		},
	)
}

// Price asks for the retail and used-market price lines
func (s *AdvisoryService) Price(ctx context.Context, year, makeName, modelName string) Outcome[model.PriceEstimate] {
	if s.generator == nil {
		return Outcome[model.PriceEstimate]{
			Value:    model.PriceEstimate{Retail: "Price unavailable (no API key)."},
			Err:      ErrGeneratorDisabled,
			Degraded: true,
		}
	}

	prompt := fmt.Sprintf(
		"You are an automotive market analyst. For the %s %s %s, "+
			"give two brief price lines in Canadian dollars:\n"+
			"1. Retail Price: if still sold new, give 'Retail Price: $XX,XXX CAD'; "+
			"if discontinued, give 'Retail Price (Discontinued): $XX,XXX CAD'.\n"+
			"2. Used Market: give a reasonable used market range (e.g. '$15,000–$25,000 CAD'), "+
			"based on typical Canadian listings, condition, and mileage. "+
			"If too new or unavailable second-hand, write 'Used Market: unavailable'.\n"+
			"Be concise, formatted as plain text with exactly two lines.",
		year, makeName, modelName,
	)

	return attempt(ctx, s.logger, "price", s.opts.CallTimeout,
		func(err error) model.PriceEstimate {
			return model.PriceEstimate{Retail: fmt.Sprintf("(Price unavailable: %s)", apperr.Message(err))}
		},
		func(ctx context.Context) (model.PriceEstimate, error) {
			text, err := s.generator.Generate(ctx, s.request(s.opts.PriceModel, prompt))
			if err != nil {
				return model.PriceEstimate{}, err
			}
			return ParsePrice(text), nil
		},
	)
}

// KPIs asks for the four 1-10 scores. priceContext feeds the value rating.
// A failed outcome carries a nil value.
func (s *AdvisoryService) KPIs(ctx context.Context, year, makeName, modelName, priceContext string) Outcome[*model.KPIScores] {
	if s.generator == nil {
		return Outcome[*model.KPIScores]{Err: ErrGeneratorDisabled, Degraded: true}
	}

	prompt := kpiPrompt(year, makeName, modelName, priceContext)

	return attempt(ctx, s.logger, "kpi", s.opts.CallTimeout,
		func(error) *model.KPIScores { return nil },
		func(ctx context.Context) (*model.KPIScores, error) {
			text, err := s.generator.Generate(ctx, s.request(s.opts.KPIModel, prompt))
			if err != nil {
				return nil, err
			}
			scores, err := ParseKPIScores(text)
			if err != nil {
				return nil, err
			}
			return &scores, nil
		},
	)
}

// Report runs one "Get Summary" cycle. Summary and price are fetched
// concurrently, then the KPIs with the price lines as context. Individual
// call failures degrade to placeholders; only a missing selection is an error.
func (s *AdvisoryService) Report(ctx context.Context, req model.AdvisoryRequest) (model.VehicleReport, error) {
	year := strings.TrimSpace(req.Year)
	makeName := strings.TrimSpace(req.Make)
	modelName := strings.TrimSpace(req.Model)
	if err := requireSelection(year, makeName, modelName); err != nil {
		return model.VehicleReport{}, err
	}

	vt := model.VehicleConventional
	if req.VehicleType != "" {
		var ok bool
		if vt, ok = model.ParseVehicleType(req.VehicleType); !ok {
			return model.VehicleReport{}, apperr.BadRequest(fmt.Sprintf("unknown vehicle_type %q", req.VehicleType))
		}
	}

	var (
		summary Outcome[string]
		price   Outcome[model.PriceEstimate]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = s.Summary(gctx, year, makeName, modelName)
		return nil
	})
	g.Go(func() error {
		price = s.Price(gctx, year, makeName, modelName)
		return nil
	})
	_ = g.Wait()

	kpis := s.KPIs(ctx, year, makeName, modelName, price.Value.Context())

	report := model.VehicleReport{
		Title:   fmt.Sprintf("%s %s %s", year, makeName, modelName),
		Summary: summary.Value,
		Price:   price.Value,
		Pricing: s.estimator.Pricing(vt),
	}
	if kpis.Value != nil {
		report.KPIs = kpis.Value
		report.KPICards = KPICards(*kpis.Value)
	} else {
		report.KPIMessage = KPIUnavailable
	}

	calls := []struct {
		name     string
		degraded bool
	}{
		{"summary", summary.Degraded},
		{"price", price.Degraded},
		{"kpi", kpis.Degraded},
	}
	for _, c := range calls {
		if c.degraded {
			report.Degraded = append(report.Degraded, c.name)
		}
	}

	s.logger.Info("Advisory report built",
		zap.String("vehicle", report.Title),
		zap.Strings("degraded", report.Degraded),
	)

	return report, nil
}

func (s *AdvisoryService) request(modelName, prompt string) GenerateRequest {
	return GenerateRequest{
		Model:       modelName,
		Messages:    UserPrompt(prompt),
		Temperature: s.opts.Temperature,
	}
}

// ParsePrice takes the first non-empty line as the retail price and the second
// as the used-market range
func ParsePrice(text string) model.PriceEstimate {
	lines := utils.NonEmptyLines(text)
	est := model.PriceEstimate{Retail: RetailUnavailable, Used: UsedUnavailable}
	if len(lines) > 0 {
		est.Retail = lines[0]
	}
	if len(lines) > 1 {
		est.Used = lines[1]
	}
	return est
}

// ParseKPIScores reads the KPI object. Every score must be a number in [1,10];
// missing explanations become empty strings.
func ParseKPIScores(text string) (model.KPIScores, error) {
	obj, err := utils.ParseAIObject(text)
	if err != nil {
		return model.KPIScores{}, apperr.ParseError(err, "KPI response is not a JSON object")
	}

	scores := make(map[string]float64, len(kpiKeys))
	for _, key := range kpiKeys {
		v, ok := obj[key].(float64)
		if !ok {
			return model.KPIScores{}, apperr.ParseError(nil, fmt.Sprintf("KPI %q is missing or not numeric", key))
		}
		if math.IsNaN(v) || v < 1 || v > 10 {
			return model.KPIScores{}, apperr.ParseError(nil, fmt.Sprintf("KPI %q out of range: %v", key, v))
		}
		scores[key] = v
	}

	explanations := make(map[string]string, len(kpiKeys))
	raw, _ := obj["explanations"].(map[string]interface{})
	for _, key := range kpiKeys {
		text, _ := raw[key].(string)
		explanations[key] = text
	}

	return model.KPIScores{
		Performance:  scores["performance"],
		Value:        scores["value"],
		Reliability:  scores["reliability"],
		Eco:          scores["eco"],
		Explanations: explanations,
	}, nil
}

// KPICards renders the scores in display order
func KPICards(scores model.KPIScores) []model.KPICard {
	values := map[string]float64{
		"performance": scores.Performance,
		"value":       scores.Value,
		"reliability": scores.Reliability,
		"eco":         scores.Eco,
	}

	cards := make([]model.KPICard, 0, len(kpiKeys))
	for _, key := range kpiKeys {
		cards = append(cards, model.KPICard{
			Key:         key,
			Label:       kpiLabels[key],
			Score:       values[key],
			Color:       ScoreColor(values[key]),
			Explanation: scores.Explanations[key],
		})
	}
	return cards
}

// ScoreColor maps a score to its band colour
func ScoreColor(score float64) string {
	switch {
	case math.IsNaN(score):
		return NeutralColor
	case score <= 4:
		return "#e74c3c"
	case score <= 6:
		return "#f39c12"
	case score <= 7:
		return "#f1c40f"
	case score <= 8:
		return "#2ecc71"
	default:
		return "#27ae60"
	}
}

func kpiPrompt(year, makeName, modelName, priceContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an automotive expert reviewing the %s %s %s. ", year, makeName, modelName)
	b.WriteString("Rate it on a 1–10 scale for (can be float like 8.5, 9.5, 4.5):\n" +
		"- Performance (acceleration, handling, top speed)\n" +
		"- Value for Money (price vs quality, efficiency, features)\n" +
		"- Reliability (mechanical dependability, repair frequency, maintenance cost)\n" +
		"- Eco-Friendliness (fuel economy AND CO₂ emissions)\n\n")
	if priceContext != "" {
		fmt.Fprintf(&b, "Known pricing: %s\n\n", priceContext)
	}
	b.WriteString("Interpretation guide:\n" +
		"7 = average for its class, 8–9 = excellent, 10 = exceptional or class-leading, " +
		"5–6 = below average, 1–4 = poor. Be realistic and fair — do not exaggerate.\n\n" +
		"Performance:\n" +
		"10 → supercar / hypercar (0–100 km/h under 3.0s, top speed >300 km/h)\n" +
		"8–9 → high-performance sports cars (0–100 km/h 3.5–4.0s)\n" +
		"7 → sporty or strong performance\n" +
		"5–6 → typical everyday vehicle\n" +
		"1–4 → slow or underpowered.\n\n" +
		"Reliability:\n" +
		"10 → extremely dependable (e.g., Toyota, Lexus, Volvo)\n" +
		"7–8 → good reliability with minor or infrequent issues (e.g., premium or exotic cars like Porsche, Lamborghini — " +
		"high build quality but costly parts)\n" +
		"5–6 → average reliability\n" +
		"1–4 → poor reliability or frequent major repairs.\n\n" +
		"Eco-Friendliness:\n" +
		"10 → zero tailpipe emissions (EV)\n" +
		"7–9 → hybrids and very efficient gas vehicles\n" +
		"5–6 → moderate fuel use (around 8–10 L/100 km)\n" +
		"1–4 → inefficient or high CO₂ vehicles (>12 L/100 km or >250 g/km CO₂).\n\n" +
		"Always include numeric details in explanations where possible: engine size (L), cylinder count, " +
		"horsepower, 0–100 km/h acceleration, top speed, fuel economy (L/100 km or mpg), and CO₂ emissions (g/km). " +
		"If exact data isn't available, estimate realistically based on vehicle type and class.\n\n" +
		"Keep explanations short (one sentence, two at most), factual, and neutral — no marketing tone.\n\n" +
		"Return only a valid JSON object. Example:\n" +
		`{"performance": 10, "value": 6, "reliability": 7, "eco": 3, ` +
		`"explanations": {"performance": "5.2L V10, 0–100 km/h in 2.9s, top 310 km/h.", ` +
		`"value": "Very expensive but extreme performance.", ` +
		`"reliability": "High-quality engineering but costly servicing.", ` +
		`"eco": "13.5 L/100 km, 320 g/km CO₂."}}`)
	return b.String()
}
