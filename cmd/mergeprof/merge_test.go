package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/phayes/freeport"
	"github.com/segmentio/kafka-go"

	"github.com/profilekit/mergeprof/internal/merge"
	"github.com/profilekit/mergeprof/internal/profile"
	"github.com/profilekit/mergeprof/internal/storageutil"
	"github.com/profilekit/mergeprof/internal/testutil"
)

const bucketName = "mergeprof-profiles"

var server *fakestorage.Server

func TestMain(m *testing.M) {
	port, err := freeport.GetFreePort()
	if err != nil {
		log.Fatalf("no free port found: %v", err)
	}
	publicHost := fmt.Sprintf("127.0.0.1:%d", port)
	server, err = fakestorage.NewServerWithOptions(fakestorage.Options{
		PublicHost: publicHost,
		Host:       "127.0.0.1",
		Port:       uint16(port),
		Scheme:     "http",
	})
	if err != nil {
		log.Fatalf("couldn't set up gcs server: %v", err)
	}
	os.Setenv("STORAGE_EMULATOR_HOST", publicHost)
	server.CreateBucketWithOpts(fakestorage.CreateBucketOpts{Name: bucketName})

	code := m.Run()
	os.Exit(code)
}

type KafkaWriterRecorder struct {
	messages []kafka.Message
}

func (k *KafkaWriterRecorder) WriteMessages(_ context.Context, messages ...kafka.Message) error {
	k.messages = append(k.messages, messages...)
	return nil
}

func (k *KafkaWriterRecorder) Close() error {
	return nil
}

func newTestEnvironment(t *testing.T) (*environment, *KafkaWriterRecorder) {
	t.Helper()
	storageClient, err := storage.NewClient(context.Background())
	if err != nil {
		t.Fatalf("we should be able to create a client: %v", err)
	}
	recorder := &KafkaWriterRecorder{}
	return &environment{
		config: ServiceConfig{
			MergesKafkaTopic:   "profile-merges",
			ProfilesBucket:     bucketName,
			ProfilesKafkaTopic: "processed-profiles",
		},
		profilingWriter: recorder,
		storage:         storageClient,
		profilesBucket:  storageClient.Bucket(bucketName),
	}, recorder
}

func intPtr(i int) *int {
	return &i
}

func storedProfile(t *testing.T, env *environment, organizationID, projectID uint64, firstSampleTime float64) MergeCandidate {
	t.Helper()
	p := profile.Profile{
		Meta: profile.Meta{
			Categories: []profile.Category{{Name: "Other"}},
			Interval:   1,
		},
		Threads: []profile.Thread{
			{
				Name: "GeckoMain",
				PID:  "1234",
				StackTable: profile.StackTable{
					Category: []int{0},
					Frame:    []int{0},
					Length:   1,
					Prefix:   []*int{nil},
				},
				Samples: profile.SamplesTable{
					Length: 2,
					Stack:  []int{0, 0},
					Time:   []float64{firstSampleTime, firstSampleTime + 1},
				},
			},
		},
	}
	profileID := uuid.New().String()
	err := storageutil.CompressedWrite(context.Background(), env.profilesBucket, profile.StoragePath(organizationID, projectID, profileID), p)
	if err != nil {
		t.Fatalf("we should be able to write the profile: %v", err)
	}
	return MergeCandidate{ProfileID: profileID, ProjectID: projectID}
}

func postMerge(t *testing.T, env *environment, request PostProfilesMergeRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("we should be able to marshal the request: %v", err)
	}

	req := httptest.NewRequest("POST", "/profiles/merge", bytes.NewBuffer(body))
	// the router installs a hub via the sentry middleware, the handler
	// expects one on the context
	req = req.WithContext(sentry.SetHubOnContext(req.Context(), sentry.NewHub(nil, sentry.NewScope())))
	w := httptest.NewRecorder()

	env.postProfilesMerge(w, req)
	return w
}

func TestPostProfilesMerge(t *testing.T) {
	env, recorder := newTestEnvironment(t)
	request := PostProfilesMergeRequest{
		Candidates: []MergeCandidate{
			storedProfile(t, env, 1, 1, 100),
			storedProfile(t, env, 1, 1, 7),
		},
		OrganizationID: 1,
		ViewStates: []merge.ViewState{
			{SelectedThread: intPtr(0)},
			{SelectedThread: intPtr(0)},
		},
	}

	w := postMerge(t, env, request)
	resp := w.Result()
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status code 200. Found: %d", resp.StatusCode)
	}

	var result merge.Result
	err := json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		t.Fatalf("we should be able to decode the response: %v", err)
	}
	if len(result.Profile.Threads) != 2 {
		t.Fatalf("expected 2 merged threads, got %d", len(result.Profile.Threads))
	}
	for i, thread := range result.Profile.Threads {
		if diff := testutil.Diff(thread.Samples.Time, []float64{0, 1}); diff != "" {
			t.Fatalf("Thread %d sample times mismatch: got - want +\n%s", i, diff)
		}
	}

	if len(recorder.messages) != 1 {
		t.Fatalf("expected 1 Kafka message, got %d", len(recorder.messages))
	}
	if recorder.messages[0].Topic != env.config.MergesKafkaTopic {
		t.Fatalf("wrong topic: %s", recorder.messages[0].Topic)
	}
}

func TestPostProfilesMergeNilSelectedThread(t *testing.T) {
	env, recorder := newTestEnvironment(t)
	request := PostProfilesMergeRequest{
		Candidates: []MergeCandidate{
			storedProfile(t, env, 1, 1, 100),
			storedProfile(t, env, 1, 1, 7),
		},
		OrganizationID: 1,
		ViewStates: []merge.ViewState{
			{SelectedThread: intPtr(0)},
			{SelectedThread: nil},
		},
	}

	w := postMerge(t, env, request)
	resp := w.Result()
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("Expected status code 400. Found: %d", resp.StatusCode)
	}
	if len(recorder.messages) != 0 {
		t.Fatalf("no Kafka message should be sent on a rejected merge, got %d", len(recorder.messages))
	}
}

func TestPostProfilesMergeMissingProfile(t *testing.T) {
	env, recorder := newTestEnvironment(t)
	request := PostProfilesMergeRequest{
		Candidates: []MergeCandidate{
			storedProfile(t, env, 1, 1, 100),
			{ProfileID: uuid.New().String(), ProjectID: 1},
		},
		OrganizationID: 1,
		ViewStates: []merge.ViewState{
			{SelectedThread: intPtr(0)},
			{SelectedThread: intPtr(0)},
		},
	}

	w := postMerge(t, env, request)
	resp := w.Result()
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("Expected status code 404. Found: %d", resp.StatusCode)
	}
	if len(recorder.messages) != 0 {
		t.Fatalf("no Kafka message should be sent when a profile is missing, got %d", len(recorder.messages))
	}
}
