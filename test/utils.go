package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"vogueapi/config"
	"vogueapi/dbhelper"

	"github.com/golang-jwt/jwt/v4"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const JWTSecret = "test-secret"

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {
	var body io.Reader
	if param != nil {
		body = strings.NewReader(JsonString(param))
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateSessionToken(sessionID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(JWTSecret))
	if err != nil {
		panic(fmt.Sprintf("sign session token for %s: %s", sessionID, err))
	}
	return t
}

func NewJSONAuthRequest(method string, target string, sessionID string, param interface{}) *http.Request {
	req := NewJSONRequest(method, target, param)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateSessionToken(sessionID)))
	return req
}

// NewPhotoUploadRequest builds an authenticated multipart request carrying one "photo" file.
func NewPhotoUploadRequest(target string, sessionID string, filename string, content []byte) *http.Request {
	var buf strings.Builder
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		panic(err)
	}
	_, _ = part.Write(content)
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateSessionToken(sessionID)))
	return req
}

func NewRefString(data string) *string {
	return &data
}

// DBOrSkip connects to the local test database and skips the test when it is not reachable.
func DBOrSkip(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbhelper.SetupDB(config.Database{
		Username: "vogue",
		Password: "vogue",
		Host:     "localhost",
		Port:     "5432",
		Name:     "vogue",
	})
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(dbhelper.SetupCleaner(db))
	return db
}

type AWSProviderMock struct {
	MockUrl string

	mu      sync.Mutex
	PutErr  error
	Objects map[string][]byte
}

func (awsService *AWSProviderMock) InitClient(ctx context.Context) error {
	return nil
}

func (awsService *AWSProviderMock) PutObject(ctx context.Context, bucketName, fileKey string, content []byte, contentType string) error {
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	if awsService.PutErr != nil {
		return awsService.PutErr
	}
	if awsService.Objects == nil {
		awsService.Objects = map[string][]byte{}
	}
	awsService.Objects[bucketName+"/"+fileKey] = content
	return nil
}

func (awsService *AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	if awsService.MockUrl != "" {
		return awsService.MockUrl, nil
	}
	return fmt.Sprintf("https://fakebucketurl.com/%s", fileKey), nil
}

type URLCacheMock struct{}

func (URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	return fmt.Sprintf("https://fakebucketurl.com/%s", objectKey), nil
}

type GeocoderMock struct {
	Country string
	Err     error
}

func (g GeocoderMock) CountryName(ctx context.Context, latitude, longitude float64) (string, error) {
	return g.Country, g.Err
}

// EnqueuerMock records enqueued tasks instead of talking to redis.
type EnqueuerMock struct {
	mu    sync.Mutex
	Err   error
	Tasks []*asynq.Task
}

func (m *EnqueuerMock) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Tasks = append(m.Tasks, task)
	return &asynq.TaskInfo{Type: task.Type(), Payload: task.Payload()}, nil
}
