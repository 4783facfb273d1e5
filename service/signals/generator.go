package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const systemPrompt = `You are an elite quantitative trading AI analyst. Generate precise trading signals based on technical and fundamental analysis.

IMPORTANT: Respond ONLY with valid JSON in this exact format:
{
    "signal": "BUY" or "SELL",
    "entry": <number>,
    "take_profit": [<number>, <number>],
    "stop_loss": <number>,
    "confidence": <number 50-95>,
    "reasoning": "<brief 2-3 sentence analysis>",
    "risk_reward": "<ratio like 1:2.5>"
}

Base your analysis on realistic market conditions. For crypto, use realistic price ranges. For stocks/forex, use appropriate prices.`

const fallbackExpiry = 8 * time.Hour

// SignalPayload is the parsed body of a generated signal, before it is
// stamped with identifiers and persisted.
type SignalPayload struct {
	Direction  string
	Entry      float64
	TakeProfit []float64
	StopLoss   *float64
	Confidence int
	Reasoning  string
	RiskReward string
}

type Generator struct {
	llm *LLMClient
}

func NewGenerator(llm *LLMClient) *Generator {
	return &Generator{llm: llm}
}

// FromModel asks the LLM for a signal and parses its reply. Any transport,
// extraction, or coercion failure is returned to the caller, which is
// expected to substitute the deterministic fallback.
func (g *Generator) FromModel(ctx context.Context, userID, asset, timeframe string) (SignalPayload, error) {
	sessionID := fmt.Sprintf("signal_%s_%s", userID, uuid.NewString())
	userPrompt := fmt.Sprintf(
		"Generate a trading signal for %s on %s timeframe. Current market shows mixed momentum. Provide entry, take-profit levels, stop-loss, and confidence score.",
		asset, timeframe,
	)

	response, err := g.llm.Complete(ctx, sessionID, systemPrompt, userPrompt)
	if err != nil {
		return SignalPayload{}, err
	}

	raw, ok := extractJSON(response)
	if !ok {
		return SignalPayload{}, fmt.Errorf("no JSON object found in response")
	}

	return parsePayload(raw)
}

var jsonPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// extractJSON pulls the first greedy {...} span out of free text.
func extractJSON(text string) (string, bool) {
	match := jsonPattern.FindString(text)
	return match, match != ""
}

func parsePayload(raw string) (SignalPayload, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return SignalPayload{}, err
	}

	// Missing fields get the same defaults the original backend used;
	// present-but-uncoercible fields are errors.
	payload := SignalPayload{
		Direction:  "BUY",
		Confidence: 75,
		RiskReward: "1:2",
	}

	if v, ok := fields["signal"]; ok && v != nil {
		direction, ok := v.(string)
		if !ok {
			return SignalPayload{}, fmt.Errorf("signal field is not a string")
		}
		payload.Direction = direction
	}

	if v, ok := fields["entry"]; ok && v != nil {
		entry, err := toFloat(v)
		if err != nil {
			return SignalPayload{}, err
		}
		payload.Entry = entry
	}

	if v, ok := fields["take_profit"]; ok && v != nil {
		levels, ok := v.([]interface{})
		if !ok {
			return SignalPayload{}, fmt.Errorf("take_profit field is not a list")
		}
		for _, level := range levels {
			tp, err := toFloat(level)
			if err != nil {
				return SignalPayload{}, err
			}
			payload.TakeProfit = append(payload.TakeProfit, tp)
		}
	}

	if v, ok := fields["stop_loss"]; ok && v != nil {
		stopLoss, err := toFloat(v)
		if err != nil {
			return SignalPayload{}, err
		}
		if stopLoss != 0 {
			payload.StopLoss = &stopLoss
		}
	}

	if v, ok := fields["confidence"]; ok && v != nil {
		confidence, err := toFloat(v)
		if err != nil {
			return SignalPayload{}, err
		}
		payload.Confidence = int(confidence)
	}

	if v, ok := fields["reasoning"]; ok && v != nil {
		reasoning, ok := v.(string)
		if !ok {
			return SignalPayload{}, fmt.Errorf("reasoning field is not a string")
		}
		payload.Reasoning = reasoning
	}

	if v, ok := fields["risk_reward"]; ok && v != nil {
		riskReward, ok := v.(string)
		if !ok {
			return SignalPayload{}, fmt.Errorf("risk_reward field is not a string")
		}
		payload.RiskReward = riskReward
	}

	return payload, nil
}

func toFloat(v interface{}) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case string:
		return strconv.ParseFloat(value, 64)
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}

// FallbackPayload is the deterministic signal substituted when generation
// fails. Price bands depend only on whether the asset looks like bitcoin.
func FallbackPayload(asset string) SignalPayload {
	payload := SignalPayload{
		Direction:  "BUY",
		Entry:      2850.0,
		TakeProfit: []float64{2950.0, 3050.0},
		Confidence: 78,
		Reasoning: fmt.Sprintf(
			"Technical analysis indicates bullish momentum for %s. RSI showing oversold conditions with MACD crossover confirmation.",
			asset,
		),
		RiskReward: "1:2.5",
	}

	stopLoss := 2750.0
	if strings.Contains(asset, "BTC") {
		payload.Entry = 42350.0
		payload.TakeProfit = []float64{43500.0, 44200.0}
		stopLoss = 41700.0
	}
	payload.StopLoss = &stopLoss

	return payload
}

// ExpiryOffset maps a timeframe label to the signal lifetime. The match is
// exact; anything unrecognized gets the intraday window.
func ExpiryOffset(timeframe string) time.Duration {
	switch timeframe {
	case "Scalp":
		return 2 * time.Hour
	case "Swing":
		return 24 * time.Hour
	case "Intraday":
		return 8 * time.Hour
	default:
		return 8 * time.Hour
	}
}
