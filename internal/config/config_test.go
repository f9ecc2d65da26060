package config

import (
	"testing"
	"time"
)

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_RRF_K", "")
	t.Setenv("RETRIEVAL_CANDIDATE_MULTIPLIER", "")
	t.Setenv("RETRIEVAL_MIN_CANDIDATES", "")
	t.Setenv("RETRIEVAL_SEARCH_TIMEOUT", "")
	t.Setenv("CORRECTIVE_MAX_RETRIES", "")

	cfg := Load()
	if cfg.RetrievalRRFK != 60 {
		t.Fatalf("expected default rrf k 60, got %d", cfg.RetrievalRRFK)
	}
	if cfg.RetrievalCandidateMult != 3 {
		t.Fatalf("expected default candidate multiplier 3, got %d", cfg.RetrievalCandidateMult)
	}
	if cfg.RetrievalMinCandidates != 30 {
		t.Fatalf("expected default min candidates 30, got %d", cfg.RetrievalMinCandidates)
	}
	if cfg.RetrievalSearchTimeout != 5*time.Second {
		t.Fatalf("expected default search timeout 5s, got %v", cfg.RetrievalSearchTimeout)
	}
	if cfg.CorrectiveMaxRetries != 2 {
		t.Fatalf("expected default max retries 2, got %d", cfg.CorrectiveMaxRetries)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_RRF_K", "75")
	t.Setenv("RETRIEVAL_TRUST_WEIGHTED", "true")
	t.Setenv("RETRIEVAL_SEARCH_TIMEOUT", "2s")
	t.Setenv("OLLAMA_SCORING_RPS", "0.5")

	cfg := Load()
	if cfg.RetrievalRRFK != 75 {
		t.Fatalf("expected rrf k override, got %d", cfg.RetrievalRRFK)
	}
	if !cfg.RetrievalTrustWeighted {
		t.Fatalf("expected trust weighting enabled")
	}
	if cfg.RetrievalSearchTimeout != 2*time.Second {
		t.Fatalf("expected search timeout 2s, got %v", cfg.RetrievalSearchTimeout)
	}
	if cfg.OllamaScoringRPS != 0.5 {
		t.Fatalf("expected scoring rps 0.5, got %v", cfg.OllamaScoringRPS)
	}
}

func TestLoadQualityTunableDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_COVERAGE_LOW", "")
	t.Setenv("RETRIEVAL_SCORE_FLOOR_LOW", "")
	t.Setenv("CONFIDENCE_WEIGHT_RETRIEVAL", "")

	cfg := Load()
	if cfg.CorrectiveCoverageLow != 0.3 || cfg.CorrectiveCoverageMid != 0.6 {
		t.Fatalf("expected default coverage thresholds 0.3/0.6, got %v/%v",
			cfg.CorrectiveCoverageLow, cfg.CorrectiveCoverageMid)
	}
	if cfg.CorrectiveScoreFloorLow != 0.015 || cfg.CorrectiveScoreFloorMid != 0.03 {
		t.Fatalf("expected default score floors 0.015/0.03, got %v/%v",
			cfg.CorrectiveScoreFloorLow, cfg.CorrectiveScoreFloorMid)
	}
	if cfg.CorrectiveSpareResults != 5 {
		t.Fatalf("expected default spare results 5, got %d", cfg.CorrectiveSpareResults)
	}
	if cfg.RetrievalNeighborDecrement != 0.0001 {
		t.Fatalf("expected default neighbor decrement 0.0001, got %v", cfg.RetrievalNeighborDecrement)
	}
	total := cfg.ConfidenceWeightRetrieval + cfg.ConfidenceWeightCoverage +
		cfg.ConfidenceWeightAnswer + cfg.ConfidenceWeightConsistency
	if total != 1.0 {
		t.Fatalf("default confidence weights must sum to 1, got %v", total)
	}
}

func TestLoadQualityTunableOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_COVERAGE_LOW", "0.2")
	t.Setenv("RETRIEVAL_COVERAGE_MID", "0.5")
	t.Setenv("RETRIEVAL_SCORE_FLOOR_LOW", "0.01")
	t.Setenv("RETRIEVAL_SCORE_FLOOR_MID", "0.02")
	t.Setenv("RETRIEVAL_NEIGHBOR_DECREMENT", "0.0005")
	t.Setenv("CORRECTIVE_SPARE_RESULTS", "8")
	t.Setenv("CONFIDENCE_WEIGHT_COVERAGE", "0.4")

	cfg := Load()
	if cfg.CorrectiveCoverageLow != 0.2 || cfg.CorrectiveCoverageMid != 0.5 {
		t.Fatalf("expected coverage overrides 0.2/0.5, got %v/%v",
			cfg.CorrectiveCoverageLow, cfg.CorrectiveCoverageMid)
	}
	if cfg.CorrectiveScoreFloorLow != 0.01 || cfg.CorrectiveScoreFloorMid != 0.02 {
		t.Fatalf("expected score floor overrides 0.01/0.02, got %v/%v",
			cfg.CorrectiveScoreFloorLow, cfg.CorrectiveScoreFloorMid)
	}
	if cfg.RetrievalNeighborDecrement != 0.0005 {
		t.Fatalf("expected neighbor decrement override, got %v", cfg.RetrievalNeighborDecrement)
	}
	if cfg.CorrectiveSpareResults != 8 {
		t.Fatalf("expected spare results override, got %d", cfg.CorrectiveSpareResults)
	}
	if cfg.ConfidenceWeightCoverage != 0.4 {
		t.Fatalf("expected coverage weight override, got %v", cfg.ConfidenceWeightCoverage)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("RETRIEVAL_RRF_K", "not-a-number")
	t.Setenv("RETRIEVAL_SEARCH_TIMEOUT", "soon")

	cfg := Load()
	if cfg.RetrievalRRFK != 60 {
		t.Fatalf("malformed int must fall back, got %d", cfg.RetrievalRRFK)
	}
	if cfg.RetrievalSearchTimeout != 5*time.Second {
		t.Fatalf("malformed duration must fall back, got %v", cfg.RetrievalSearchTimeout)
	}
}
