package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"blog-backend/internal/model"
)

// tombstone marks a deleted post. Slugs are never reused, so it can safely
// shadow the key until it expires.
const tombstone = "deleted"

// putScript overwrites an entry unless the post is deleted or the cached copy is
// newer. Entries are stored as "<updated_at millis>\n<json>".
var putScript = redisv9.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur == ARGV[3] then
  return 0
end
if cur then
  local v = tonumber(string.match(cur, '^(%d+)\n'))
  if v and v > tonumber(ARGV[1]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[4])
return 1
`)

type PostCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewPostCache(client *redisv9.Client, ttl time.Duration) *PostCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &PostCache{
		client: client,
		ttl:    ttl,
	}
}

// Get reports a hit with a nil view when the post has been deleted.
func (c *PostCache) Get(ctx context.Context, slug string) (*model.PostView, bool, error) {
	raw, err := c.client.Get(ctx, c.postKey(slug)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get post failed: %w", err)
	}
	if raw == tombstone {
		return nil, true, nil
	}

	_, body, found := strings.Cut(raw, "\n")
	if !found {
		return nil, false, fmt.Errorf("malformed cached post %s", slug)
	}
	var view model.PostView
	if err := json.Unmarshal([]byte(body), &view); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached post failed: %w", err)
	}
	return &view, true, nil
}

// Fill stores view only when nothing is cached under its slug.
func (c *PostCache) Fill(ctx context.Context, view *model.PostView) error {
	entry, err := encodeEntry(view)
	if err != nil {
		return err
	}
	if err := c.client.SetNX(ctx, c.postKey(view.Slug), entry, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis fill post failed: %w", err)
	}
	return nil
}

// Put replaces the cached copy with view unless the post is deleted or a newer
// revision is already cached.
func (c *PostCache) Put(ctx context.Context, view *model.PostView) error {
	entry, err := encodeEntry(view)
	if err != nil {
		return err
	}
	err = putScript.Run(ctx, c.client,
		[]string{c.postKey(view.Slug)},
		revision(view), entry, tombstone, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis put post failed: %w", err)
	}
	return nil
}

func (c *PostCache) MarkDeleted(ctx context.Context, slug string) error {
	if err := c.client.Set(ctx, c.postKey(slug), tombstone, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis mark post deleted failed: %w", err)
	}
	return nil
}

func (c *PostCache) postKey(slug string) string {
	return fmt.Sprintf("blog:post:%s", slug)
}

func revision(view *model.PostView) int64 {
	return view.UpdatedAt.UnixMilli()
}

func encodeEntry(view *model.PostView) (string, error) {
	payload, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("marshal post cache failed: %w", err)
	}
	return strconv.FormatInt(revision(view), 10) + "\n" + string(payload), nil
}
