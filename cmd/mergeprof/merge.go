package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/profilekit/mergeprof/internal/errorutil"
	"github.com/profilekit/mergeprof/internal/merge"
	"github.com/profilekit/mergeprof/internal/profile"
	"github.com/profilekit/mergeprof/internal/storageutil"
)

type (
	// MergeCandidate identifies one stored profile taking part in a merge.
	MergeCandidate struct {
		ProfileID string `json:"profile_id"`
		ProjectID uint64 `json:"project_id"`
	}

	PostProfilesMergeRequest struct {
		Candidates     []MergeCandidate  `json:"candidates"`
		OrganizationID uint64            `json:"organization_id"`
		ViewStates     []merge.ViewState `json:"view_states"`
	}
)

func (e *environment) postProfilesMerge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	s := sentry.StartSpan(ctx, "request.body")
	s.Description = "Read request body"
	body, err := io.ReadAll(r.Body)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "json.unmarshal")
	s.Description = "Unmarshal merge request"
	var req PostProfilesMergeRequest
	err = gojson.Unmarshal(body, &req)
	s.Finish()
	if err != nil {
		log.Err(err).Msg("merge request can't be unmarshaled")
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(req.Candidates) == 0 || len(req.Candidates) != len(req.ViewStates) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	hub.Scope().SetContext("Merge metadata", map[string]interface{}{
		"organization_id": strconv.FormatUint(req.OrganizationID, 10),
		"profiles":        len(req.Candidates),
	})

	profiles := make([]profile.Profile, 0, len(req.Candidates))
	s = sentry.StartSpan(ctx, "gcs.read")
	s.Description = "Read profiles from GCS"
	for _, candidate := range req.Candidates {
		var p profile.Profile
		err := storageutil.UnmarshalCompressed(ctx, e.profilesBucket, profile.StoragePath(req.OrganizationID, candidate.ProjectID, candidate.ProfileID), &p)
		if err != nil {
			s.Finish()
			if errors.Is(err, storageutil.ErrObjectNotFound) {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			hub.CaptureException(err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		profiles = append(profiles, p)
	}
	s.Finish()

	s = sentry.StartSpan(ctx, "processing")
	s.Description = "Merge profiles"
	result, err := merge.Profiles(profiles, req.ViewStates)
	s.Finish()
	if err != nil {
		if errors.Is(err, errorutil.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// a data integrity error means a stored profile is corrupt
		hub.CaptureException(err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "json.marshal")
	s.Description = "Marshal merge Kafka message"
	b, err := json.Marshal(buildMergeKafkaMessage(req, result, time.Now().UTC()))
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s = sentry.StartSpan(ctx, "processing")
	s.Description = "Send merge to Kafka"
	err = e.profilingWriter.WriteMessages(ctx, kafka.Message{
		Topic: e.config.MergesKafkaTopic,
		Value: b,
	})
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "json.marshal")
	defer s.Finish()

	b, err = json.Marshal(result)
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
