package service

import (
	"context"
	"fmt"

	"studyqa/internal/calibration"
	"studyqa/internal/contextutil"
	"studyqa/internal/storage"
)

// ClearCache drops cached TF-IDF models for one namespace, or all when empty.
func (s *studyService) ClearCache(ctx context.Context, namespace string) ([]string, error) {
	cleared, err := s.lexical.ClearCache(ctx, namespace)
	if err != nil {
		return nil, WrapError(err, "failed to clear cache")
	}
	if cleared == nil {
		cleared = []string{}
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "cleared model cache",
		"namespace", namespace,
		"cleared", len(cleared),
	)
	return cleared, nil
}

// ReloadCurated re-reads the curated answer file and returns the pool size.
func (s *studyService) ReloadCurated(ctx context.Context) (int, error) {
	if s.curated == nil {
		return 0, nil
	}
	count, err := s.curated.Reload()
	if err != nil {
		return count, WrapError(err, "failed to reload curated answers")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "reloaded curated answers", "count", count)
	return count, nil
}

// Calibrate suggests validator thresholds from labeled scores, optionally applying them.
func (s *studyService) Calibrate(ctx context.Context, req CalibrateRequest) (CalibrateResponse, error) {
	if len(req.Rows) == 0 {
		return CalibrateResponse{}, invalid("rows", "at least one labeled row is required")
	}

	resp := CalibrateResponse{
		Suggestions: calibration.SuggestThresholds(req.Rows),
		Count:       len(req.Rows),
	}
	if !req.Apply {
		return resp, nil
	}

	partial := resp.Suggestions.PartialMinSuggested
	correct := resp.Suggestions.CorrectMinSuggested
	applied, err := s.SetThresholds(ctx, storage.ThresholdOverrides{PartialMin: &partial, CorrectMin: &correct})
	if err != nil {
		return CalibrateResponse{}, err
	}
	resp.Applied = &applied
	return resp, nil
}

// Thresholds returns the effective validator thresholds.
func (s *studyService) Thresholds(ctx context.Context) (ThresholdsResponse, error) {
	if s.thresholds == nil {
		return s.effective(storage.ThresholdOverrides{}), nil
	}
	overrides, err := s.thresholds.Get(ctx)
	if err != nil {
		return ThresholdsResponse{}, WrapError(err, "failed to read thresholds")
	}
	return s.effective(overrides), nil
}

// SetThresholds stores threshold overrides.
func (s *studyService) SetThresholds(ctx context.Context, overrides storage.ThresholdOverrides) (ThresholdsResponse, error) {
	if overrides.PartialMin == nil && overrides.CorrectMin == nil {
		return ThresholdsResponse{}, invalid("thresholds", "partial_min or correct_min is required")
	}
	if s.thresholds == nil {
		return ThresholdsResponse{}, fmt.Errorf("%w: threshold store not configured", ErrExternalService)
	}

	stored, err := s.thresholds.Set(ctx, overrides)
	if err != nil {
		return ThresholdsResponse{}, WrapError(err, "failed to store thresholds")
	}

	resp := s.effective(stored)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "updated thresholds",
		"partial_min", resp.PartialMin,
		"correct_min", resp.CorrectMin,
	)
	return resp, nil
}

func (s *studyService) effective(overrides storage.ThresholdOverrides) ThresholdsResponse {
	resp := ThresholdsResponse{
		PartialMin: s.opts.PartialMin,
		CorrectMin: s.opts.CorrectMin,
		Overrides:  overrides,
	}
	if overrides.PartialMin != nil {
		resp.PartialMin = *overrides.PartialMin
	}
	if overrides.CorrectMin != nil {
		resp.CorrectMin = *overrides.CorrectMin
	}
	return resp
}
