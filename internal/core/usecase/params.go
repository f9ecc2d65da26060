package usecase

import (
	"time"

	"github.com/kirillkom/docscout/internal/core/domain"
)

// Params holds every retrieval tunable. The defaults follow the values the
// engine was tuned with, but nothing here is a hard invariant; corpora
// differ and operators override via config.
type Params struct {
	RRFK                int
	CandidateMultiplier int
	MinCandidates       int
	NeighborDecrement   float64

	MaxRetries        int
	RetrySpareResults int
	MinResults        int
	CoverageLow       float64
	CoverageMid       float64
	ScoreFloorLow     float64
	ScoreFloorMid     float64

	TrustWeighting bool
	TrustWeights   map[domain.TrustTier]float64

	SearchTimeout time.Duration
	RerankTimeout time.Duration

	PreviewShort int
	PreviewLong  int

	Weights ConfidenceWeights
}

type ConfidenceWeights struct {
	Retrieval     float64
	Coverage      float64
	AnswerQuality float64
	Consistency   float64
}

func DefaultParams() Params {
	return Params{
		RRFK:                60,
		CandidateMultiplier: 3,
		MinCandidates:       30,
		NeighborDecrement:   0.0001,

		MaxRetries:        2,
		RetrySpareResults: 5,
		MinResults:        3,
		CoverageLow:       0.3,
		CoverageMid:       0.6,
		ScoreFloorLow:     0.015,
		ScoreFloorMid:     0.03,

		TrustWeighting: false,
		TrustWeights: map[domain.TrustTier]float64{
			domain.TrustOfficial:  1.0,
			domain.TrustVerified:  0.9,
			domain.TrustCommunity: 0.7,
		},

		SearchTimeout: 5 * time.Second,
		RerankTimeout: 20 * time.Second,

		PreviewShort: 400,
		PreviewLong:  1200,

		Weights: ConfidenceWeights{
			Retrieval:     0.30,
			Coverage:      0.25,
			AnswerQuality: 0.30,
			Consistency:   0.15,
		},
	}
}

func (p Params) normalize() Params {
	out := p
	def := DefaultParams()

	if out.RRFK <= 0 {
		out.RRFK = def.RRFK
	}
	if out.CandidateMultiplier <= 0 {
		out.CandidateMultiplier = def.CandidateMultiplier
	}
	if out.MinCandidates <= 0 {
		out.MinCandidates = def.MinCandidates
	}
	if out.NeighborDecrement <= 0 {
		out.NeighborDecrement = def.NeighborDecrement
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = def.MaxRetries
	}
	if out.RetrySpareResults <= 0 {
		out.RetrySpareResults = def.RetrySpareResults
	}
	if out.MinResults <= 0 {
		out.MinResults = def.MinResults
	}
	if out.CoverageLow <= 0 || out.CoverageLow >= 1 {
		out.CoverageLow = def.CoverageLow
	}
	if out.CoverageMid <= out.CoverageLow || out.CoverageMid >= 1 {
		out.CoverageMid = def.CoverageMid
	}
	if out.ScoreFloorLow <= 0 {
		out.ScoreFloorLow = def.ScoreFloorLow
	}
	if out.ScoreFloorMid <= out.ScoreFloorLow {
		out.ScoreFloorMid = def.ScoreFloorMid
	}
	if out.TrustWeights == nil {
		out.TrustWeights = def.TrustWeights
	}
	if out.SearchTimeout <= 0 {
		out.SearchTimeout = def.SearchTimeout
	}
	if out.RerankTimeout <= 0 {
		out.RerankTimeout = def.RerankTimeout
	}
	if out.PreviewShort <= 0 {
		out.PreviewShort = def.PreviewShort
	}
	if out.PreviewLong <= out.PreviewShort {
		out.PreviewLong = def.PreviewLong
	}
	if out.Weights.Retrieval <= 0 && out.Weights.Coverage <= 0 &&
		out.Weights.AnswerQuality <= 0 && out.Weights.Consistency <= 0 {
		out.Weights = def.Weights
	}

	return out
}
