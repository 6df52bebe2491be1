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
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/profilekit/mergeprof/internal/profile"
	"github.com/profilekit/mergeprof/internal/storageutil"
)

type PostProfileRequest struct {
	OrganizationID uint64          `json:"organization_id"`
	ProfileID      string          `json:"profile_id"`
	ProjectID      uint64          `json:"project_id"`
	Profile        profile.Profile `json:"profile"`
}

func (e *environment) postProfile(w http.ResponseWriter, r *http.Request) {
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
	s.Description = "Unmarshal profile"
	var req PostProfileRequest
	err = gojson.Unmarshal(body, &req)
	s.Finish()
	if err != nil {
		log.Err(err).Msg("profile can't be unmarshaled")
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if req.ProfileID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	hub.Scope().SetContext("Profile metadata", map[string]interface{}{
		"organization_id": strconv.FormatUint(req.OrganizationID, 10),
		"profile_id":      req.ProfileID,
		"project_id":      strconv.FormatUint(req.ProjectID, 10),
		"size":            len(body),
	})

	s = sentry.StartSpan(ctx, "gcs.write")
	s.Description = "Write profile to GCS"
	err = storageutil.CompressedWrite(ctx, e.profilesBucket, profile.StoragePath(req.OrganizationID, req.ProjectID, req.ProfileID), req.Profile)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "json.marshal")
	s.Description = "Marshal profile Kafka message"
	b, err := json.Marshal(buildProfileKafkaMessage(req, time.Now().UTC()))
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s = sentry.StartSpan(ctx, "processing")
	s.Description = "Send profile to Kafka"
	err = e.profilingWriter.WriteMessages(ctx, kafka.Message{
		Topic: e.config.ProfilesKafkaTopic,
		Value: b,
	})
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *environment) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)
	ps := httprouter.ParamsFromContext(ctx)
	rawOrganizationID := ps.ByName("organization_id")
	organizationID, err := strconv.ParseUint(rawOrganizationID, 10, 64)
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rawProjectID := ps.ByName("project_id")
	projectID, err := strconv.ParseUint(rawProjectID, 10, 64)
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	profileID := ps.ByName("profile_id")

	hub.Scope().SetTags(map[string]string{
		"organization_id": rawOrganizationID,
		"profile_id":      profileID,
		"project_id":      rawProjectID,
	})

	s := sentry.StartSpan(ctx, "gcs.read")
	s.Description = "Read profile from GCS"
	var p profile.Profile
	err = storageutil.UnmarshalCompressed(ctx, e.profilesBucket, profile.StoragePath(organizationID, projectID, profileID), &p)
	s.Finish()
	if err != nil {
		if errors.Is(err, storageutil.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "json.marshal")
	defer s.Finish()

	b, err := json.Marshal(p)
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
