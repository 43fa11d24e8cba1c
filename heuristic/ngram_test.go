package heuristic

import (
	"context"
	"math"
	"testing"

	"github.com/datar-psa/nlgeval/api"
)

const epsilon = 1e-4

func TestBLEU(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		opts       BLEUOptions
		output     string
		expected   string
		wantErr    error
		wantScore  float64
		wantBP     float64
		wantLength int
	}{
		{
			name:       "identical sentence",
			output:     "the cat sat on the mat",
			expected:   "the cat sat on the mat",
			wantScore:  1.0,
			wantBP:     1.0,
			wantLength: 6,
		},
		{
			name:       "no four-gram overlap",
			output:     "I adore my cakes",
			expected:   "I like my cakes very much",
			wantScore:  0.0,
			wantBP:     math.Exp(1 - 6.0/4.0),
			wantLength: 4,
		},
		{
			name:       "smoothed short prediction",
			opts:       BLEUOptions{Smooth: true},
			output:     "the cat",
			expected:   "the cat sat",
			wantScore:  math.Exp(-0.5),
			wantBP:     math.Exp(-0.5),
			wantLength: 2,
		},
		{
			name:       "lowercase",
			opts:       BLEUOptions{Lowercase: true},
			output:     "THE CAT SAT ON THE MAT",
			expected:   "the cat sat on the mat",
			wantScore:  1.0,
			wantBP:     1.0,
			wantLength: 6,
		},
		{
			name:     "no expected value",
			output:   "the cat",
			expected: "",
			wantErr:  api.ErrNoExpectedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BLEU(tt.opts).Score(ctx, api.ScoreInputs{Output: tt.output, Expected: tt.expected})

			if result.Error != tt.wantErr {
				t.Fatalf("BLEU.Score() error = %v, wantErr %v", result.Error, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if math.Abs(result.Score-tt.wantScore) > epsilon {
				t.Errorf("BLEU.Score() score = %v, want %v", result.Score, tt.wantScore)
			}
			if result.Metadata["bleu"] != result.Score {
				t.Errorf("BLEU.Score() bleu field = %v, want %v", result.Metadata["bleu"], result.Score)
			}
			if bp := result.Metadata["brevity_penalty"].(float64); math.Abs(bp-tt.wantBP) > epsilon {
				t.Errorf("BLEU.Score() brevity_penalty = %v, want %v", bp, tt.wantBP)
			}
			if got := result.Metadata["translation_length"]; got != tt.wantLength {
				t.Errorf("BLEU.Score() translation_length = %v, want %v", got, tt.wantLength)
			}
		})
	}
}

func TestSacreBLEU(t *testing.T) {
	ctx := context.Background()
	floor := 0.5

	tests := []struct {
		name      string
		opts      SacreBLEUOptions
		output    string
		expected  string
		wantErr   bool
		wantScore float64
	}{
		{
			name:      "exp smoothing",
			output:    "I adore my cakes",
			expected:  "I like my cakes very much",
			wantScore: 21.444097,
		},
		{
			name:      "case sensitive with punctuation",
			output:    "These cakes are bad!",
			expected:  "I hate these cakes!",
			wantScore: 12.703319,
		},
		{
			name:      "identical",
			output:    "I hate these cakes!",
			expected:  "I hate these cakes!",
			wantScore: 100,
		},
		{
			name:      "no matches at all",
			output:    "completely unrelated",
			expected:  "I hate these cakes!",
			wantScore: 0,
		},
		{
			name:      "no smoothing zero order",
			opts:      SacreBLEUOptions{SmoothMethod: SmoothNone},
			output:    "I adore my cakes",
			expected:  "I like my cakes very much",
			wantScore: 0,
		},
		{
			name:      "floor smoothing",
			opts:      SacreBLEUOptions{SmoothMethod: SmoothFloor, SmoothValue: &floor},
			output:    "I adore my cakes",
			expected:  "I like my cakes very much",
			wantScore: math.Exp(1-1.5) * math.Pow(75*(100.0/3)*(100*0.5/2)*(100*0.5/1), 0.25),
		},
		{
			name:     "unknown smoothing",
			opts:     SacreBLEUOptions{SmoothMethod: "magic"},
			output:   "a",
			expected: "a",
			wantErr:  true,
		},
		{
			name:     "unknown tokenizer",
			opts:     SacreBLEUOptions{Tokenize: "zh"},
			output:   "a",
			expected: "a",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SacreBLEU(tt.opts).Score(ctx, api.ScoreInputs{Output: tt.output, Expected: tt.expected})

			if (result.Error != nil) != tt.wantErr {
				t.Fatalf("SacreBLEU.Score() error = %v, wantErr %v", result.Error, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			score := result.Metadata["score"].(float64)
			if math.Abs(score-tt.wantScore) > epsilon {
				t.Errorf("SacreBLEU.Score() score field = %v, want %v", score, tt.wantScore)
			}
			if math.Abs(result.Score-score/100) > epsilon {
				t.Errorf("SacreBLEU.Score() normalized score = %v, want %v", result.Score, score/100)
			}
		})
	}
}

func TestChrF(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		opts      ChrFOptions
		output    string
		expected  string
		wantErr   error
		wantScore float64
	}{
		{
			name:      "identical",
			output:    "abc",
			expected:  "abc",
			wantScore: 100,
		},
		{
			name:      "partial overlap",
			output:    "I adore my cakes",
			expected:  "I like my cakes very much",
			wantScore: 35.214677,
		},
		{
			name:      "reordered sentence",
			output:    "These cakes are bad!",
			expected:  "I hate these cakes!",
			wantScore: 49.692958,
		},
		{
			name:      "whitespace ignored by default",
			output:    "a b c",
			expected:  "abc",
			wantScore: 100,
		},
		{
			name:      "empty prediction",
			output:    "",
			expected:  "abc",
			wantScore: 0,
		},
		{
			name:      "chrF++ identical",
			opts:      ChrFOptions{WordOrder: 2},
			output:    "the cakes are bad!",
			expected:  "the cakes are bad!",
			wantScore: 100,
		},
		{
			name:     "no expected value",
			output:   "abc",
			expected: "",
			wantErr:  api.ErrNoExpectedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ChrF(tt.opts).Score(ctx, api.ScoreInputs{Output: tt.output, Expected: tt.expected})

			if result.Error != tt.wantErr {
				t.Fatalf("ChrF.Score() error = %v, wantErr %v", result.Error, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			score := result.Metadata["score"].(float64)
			if math.Abs(score-tt.wantScore) > epsilon {
				t.Errorf("ChrF.Score() score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}

func TestSplitPunctuation(t *testing.T) {
	got := splitPunctuation("(hi) bad! ,x a")
	want := []string{"(hi", ")", "bad", "!", ",", "x", "a"}
	if len(got) != len(want) {
		t.Fatalf("splitPunctuation() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitPunctuation()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMETEOR(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		opts       METEOROptions
		output     string
		expected   string
		wantErr    error
		wantScore  float64
		wantChunks int
	}{
		{
			name:       "fragmented match",
			output:     "I adore my cakes",
			expected:   "I like my cakes very much",
			wantScore:  (1 - 0.5*math.Pow(2.0/3, 3)) * (0.375 / 0.725),
			wantChunks: 2,
		},
		{
			name:       "case folded",
			output:     "These cakes are bad!",
			expected:   "I hate these cakes!",
			wantScore:  (1 - 0.5*math.Pow(2.0/3, 3)) * 0.6,
			wantChunks: 2,
		},
		{
			name:       "stem matches",
			output:     "the cats running",
			expected:   "the cat runs",
			wantScore:  1 - 0.5/27,
			wantChunks: 1,
		},
		{
			name:       "stemming disabled",
			opts:       METEOROptions{DisableStemming: true},
			output:     "the cats running",
			expected:   "the cat runs",
			wantScore:  (1.0 / 3) * 0.5,
			wantChunks: 1,
		},
		{
			name:      "nothing in common",
			output:    "apples",
			expected:  "oranges",
			wantScore: 0,
		},
		{
			name:     "no expected value",
			output:   "apples",
			expected: "",
			wantErr:  api.ErrNoExpectedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := METEOR(tt.opts).Score(ctx, api.ScoreInputs{Output: tt.output, Expected: tt.expected})

			if result.Error != tt.wantErr {
				t.Fatalf("METEOR.Score() error = %v, wantErr %v", result.Error, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if math.Abs(result.Score-tt.wantScore) > epsilon {
				t.Errorf("METEOR.Score() score = %v, want %v", result.Score, tt.wantScore)
			}
			if result.Metadata["meteor"] != result.Score {
				t.Errorf("METEOR.Score() meteor field = %v, want %v", result.Metadata["meteor"], result.Score)
			}
			if result.Metadata["chunks"] != tt.wantChunks {
				t.Errorf("METEOR.Score() chunks = %v, want %v", result.Metadata["chunks"], tt.wantChunks)
			}
		})
	}
}

func TestCountChunks(t *testing.T) {
	matches := []alignment{{0, 0}, {1, 1}, {2, 5}, {3, 6}, {5, 2}}
	if got := countChunks(matches); got != 3 {
		t.Errorf("countChunks() = %d, want 3", got)
	}
}
