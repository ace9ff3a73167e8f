package application

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/vidtube-accounts/internal/domain/entity"
	repo "github.com/oksasatya/vidtube-accounts/internal/domain/repository"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
)

type memUserRepo struct {
	mu      sync.Mutex
	users   map[string]*entity.User
	lookups int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func (r *memUserRepo) conflict(u *entity.User) error {
	for id, o := range r.users {
		if id == u.ID {
			continue
		}
		if o.Username == u.Username {
			return repo.ErrDuplicateUsername
		}
		if o.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
	}
	return nil
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(u); err != nil {
		return err
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUserRepo) FindByIdentity(_ context.Context, username, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			c := *u
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	cur.Username, cur.Email, cur.DisplayName = u.Username, u.Email, u.DisplayName
	cur.AvatarURL, cur.CoverImageURL = u.AvatarURL, u.CoverImageURL
	cur.UpdatedAt = time.Now()
	return nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (r *memUserRepo) SetRefreshToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

func (r *memUserRepo) SwapRefreshToken(_ context.Context, id, old, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.RefreshToken == "" || u.RefreshToken != old {
		return false, nil
	}
	u.RefreshToken = token
	return true, nil
}

func (r *memUserRepo) stored(id string) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *r.users[id]
	return &c
}

// memGraphRepo evaluates the graph queries over plain slices.
type memGraphRepo struct {
	users   *memUserRepo
	subs    []entity.Subscription
	videos  map[string]entity.Video
	history map[string][]string
	err     error
}

func newMemGraphRepo(users *memUserRepo) *memGraphRepo {
	return &memGraphRepo{users: users, videos: map[string]entity.Video{}, history: map[string][]string{}}
}

func (g *memGraphRepo) ChannelProfile(_ context.Context, username, viewerID string) (*entity.ChannelProfile, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.users.mu.Lock()
	defer g.users.mu.Unlock()
	var ch *entity.User
	for _, u := range g.users.users {
		if strings.EqualFold(u.Username, username) {
			ch = u
		}
	}
	if ch == nil {
		return nil, repo.ErrNotFound
	}
	p := &entity.ChannelProfile{
		DisplayName:   ch.DisplayName,
		Username:      ch.Username,
		Email:         ch.Email,
		AvatarURL:     ch.AvatarURL,
		CoverImageURL: ch.CoverImageURL,
	}
	for _, s := range g.subs {
		if s.ChannelID == ch.ID {
			p.SubscribersCount++
			if viewerID != "" && s.SubscriberID == viewerID {
				p.IsSubscribed = true
			}
		}
		if s.SubscriberID == ch.ID {
			p.ChannelsSubscribedToCount++
		}
	}
	return p, nil
}

func (g *memGraphRepo) WatchHistory(_ context.Context, userID string) ([]entity.WatchHistoryEntry, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.users.mu.Lock()
	defer g.users.mu.Unlock()
	var out []entity.WatchHistoryEntry
	for _, vid := range g.history[userID] {
		v, ok := g.videos[vid]
		if !ok {
			continue
		}
		e := entity.WatchHistoryEntry{Video: v}
		if o, ok := g.users.users[v.OwnerID]; ok {
			e.Owner = &entity.OwnerSummary{DisplayName: o.DisplayName, Username: o.Username, AvatarURL: o.AvatarURL}
		}
		out = append(out, e)
	}
	return out, nil
}

func (g *memGraphRepo) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	if _, ok := g.videos[videoID]; !ok {
		return repo.ErrNotFound
	}
	g.history[userID] = append(g.history[userID], videoID)
	return nil
}

type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    map[string]error // keyed by object path prefix
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: map[string][]byte{}, types: map[string]string{}, fail: map[string]error{}}
}

func (b *memBlobStore) Store(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for prefix, err := range b.fail {
		if strings.HasPrefix(objectPath, prefix) {
			return "", err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.objects[objectPath] = data
	b.types[objectPath] = contentType
	return "https://blobs.test/" + objectPath, nil
}

func (b *memBlobStore) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.objects))
	for p := range b.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type published struct {
	kind string
	body any
}

type memPublisher struct {
	mu   sync.Mutex
	jobs []published
	err  error
}

func (p *memPublisher) PublishJSON(_ context.Context, kind string, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, published{kind: kind, body: body})
	return nil
}

func (p *memPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.jobs))
	for _, j := range p.jobs {
		out = append(out, j.kind)
	}
	return out
}

type memIndexer struct {
	mu   sync.Mutex
	docs map[string]entity.UserDocument
	err  error
}

func newMemIndexer() *memIndexer { return &memIndexer{docs: map[string]entity.UserDocument{}} }

func (i *memIndexer) IndexUser(_ context.Context, u *entity.User) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return i.err
	}
	i.docs[u.ID] = entity.UserDocument{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
	return nil
}

func (i *memIndexer) SearchUsers(_ context.Context, q string, size int) ([]entity.UserDocument, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return nil, i.err
	}
	var out []entity.UserDocument
	for _, d := range i.docs {
		if strings.Contains(d.Username, q) || strings.Contains(strings.ToLower(d.DisplayName), q) {
			out = append(out, d)
		}
	}
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

type harness struct {
	users     *memUserRepo
	graph     *memGraphRepo
	blobs     *memBlobStore
	publisher *memPublisher
	indexer   *memIndexer
	signer    *helpers.JWTManager
	tokens    *TokenService
	creds     *CredentialStore
	svc       *Service
	graphSvc  *GraphService
}

func testJWTConfig() helpers.JWTConfig {
	return helpers.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "vidtube-test",
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		users:     newMemUserRepo(),
		blobs:     newMemBlobStore(),
		publisher: &memPublisher{},
		indexer:   newMemIndexer(),
		signer:    helpers.NewJWTManager(testJWTConfig()),
	}
	h.graph = newMemGraphRepo(h.users)
	h.creds = NewCredentialStore(h.users, helpers.NewBcryptHasher(bcrypt.MinCost))
	h.tokens = NewTokenService(h.users, h.signer, logger, nil)
	h.svc = NewService(ServiceDeps{
		Credentials: h.creds,
		Tokens:      h.tokens,
		Repo:        h.users,
		Blobs:       h.blobs,
		Publisher:   h.publisher,
		Indexer:     h.indexer,
		Logger:      logger,
		MailEnabled: true,
	})
	h.graphSvc = NewGraphService(h.graph, logger)
	return h
}

func pngUpload(t *testing.T, w, hgt int) *Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, hgt))
	for x := 0; x < w; x++ {
		for y := 0; y < hgt; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &Upload{Reader: &buf, Filename: "img.png", ContentType: "image/png"}
}

func (h *harness) register(t *testing.T, username, email, password string) *entity.User {
	t.Helper()
	u, err := h.svc.Register(context.Background(), RegisterInput{
		Username:    username,
		Email:       email,
		DisplayName: strings.ToUpper(username),
		Password:    password,
		Avatar:      pngUpload(t, 40, 30),
	})
	require.NoError(t, err)
	return u
}

var errBoom = errors.New("boom")
