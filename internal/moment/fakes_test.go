package moment

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/saaga0h/vibe-platform/pkg/mqtt"
	"github.com/saaga0h/vibe-platform/pkg/postgres"
	"github.com/saaga0h/vibe-platform/pkg/redis"
)

// fakeRedis is an in-memory redis.Client covering the operations the agent
// uses: hashes and score-sorted sets.
type fakeRedis struct {
	hashes map[string]map[string]string
	zsets  map[string][]redis.ZMember
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		hashes: make(map[string]map[string]string),
		zsets:  make(map[string][]redis.ZMember),
	}
}

func memberString(m interface{}) string {
	switch v := m.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (f *fakeRedis) HSet(ctx context.Context, key string, field string, value interface{}) error {
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	f.hashes[key][field] = memberString(value)
	return nil
}

func (f *fakeRedis) HGet(ctx context.Context, key string, field string) (string, error) {
	val, ok := f.hashes[key][field]
	if !ok {
		return "", fmt.Errorf("hash field %s:%s does not exist", key, field)
	}
	return val, nil
}

func (f *fakeRedis) ZAdd(ctx context.Context, key string, score float64, member interface{}) error {
	f.zsets[key] = append(f.zsets[key], redis.ZMember{Score: score, Member: memberString(member)})
	sort.SliceStable(f.zsets[key], func(i, j int) bool {
		return f.zsets[key][i].Score < f.zsets[key][j].Score
	})
	return nil
}

func parseScoreBound(s string) float64 {
	switch s {
	case "-inf":
		return math.Inf(-1)
	case "+inf", "inf":
		return math.Inf(1)
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func (f *fakeRedis) ZRemRangeByScore(ctx context.Context, key string, min, max string) error {
	lo, hi := parseScoreBound(min), parseScoreBound(max)
	kept := f.zsets[key][:0]
	for _, m := range f.zsets[key] {
		if m.Score >= lo && m.Score <= hi {
			continue
		}
		kept = append(kept, m)
	}
	f.zsets[key] = kept
	return nil
}

func (f *fakeRedis) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) error {
	set := f.zsets[key]
	n := int64(len(set))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return nil
	}
	f.zsets[key] = append(set[:start], set[stop+1:]...)
	return nil
}

func (f *fakeRedis) ZRevRangeByScoreWithScores(ctx context.Context, key string, max, min float64, offset, count int64) ([]redis.ZMember, error) {
	var matched []redis.ZMember
	set := f.zsets[key]
	for i := len(set) - 1; i >= 0; i-- {
		if set[i].Score >= min && set[i].Score <= max {
			matched = append(matched, set[i])
		}
	}
	if offset > 0 {
		if offset >= int64(len(matched)) {
			return nil, nil
		}
		matched = matched[offset:]
	}
	if count > 0 && count < int64(len(matched)) {
		matched = matched[:count]
	}
	return matched, nil
}

func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }
func (f *fakeRedis) Ping(ctx context.Context) error                                  { return nil }
func (f *fakeRedis) Close() error                                                    { return nil }

// publishedMessage is one message captured by fakeMQTT
type publishedMessage struct {
	Topic    string
	Retained bool
	Payload  []byte
}

// fakeMQTT is an mqtt.Client that records published messages
type fakeMQTT struct {
	published []publishedMessage
}

func (f *fakeMQTT) Connect(ctx context.Context) error { return nil }
func (f *fakeMQTT) Disconnect()                       {}
func (f *fakeMQTT) IsConnected() bool                 { return true }

func (f *fakeMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	return nil
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.published = append(f.published, publishedMessage{Topic: topic, Retained: retained, Payload: payload})
	return nil
}

func (f *fakeMQTT) byTopic(topic string) []publishedMessage {
	var out []publishedMessage
	for _, m := range f.published {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// fakeMessage is an mqtt.Message carrying a fixed topic and payload
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }
func (m *fakeMessage) Ack()            {}

// execCall is one statement captured by fakePG
type execCall struct {
	Query string
	Args  []interface{}
}

// fakePG is a postgres.Client that records Exec statements. Query is not
// backed by real rows; paths that read rows are stubbed at a higher seam.
type fakePG struct {
	execs []execCall
}

func (f *fakePG) Connect(ctx context.Context) error { return nil }
func (f *fakePG) Disconnect() error                 { return nil }

func (f *fakePG) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.execs = append(f.execs, execCall{Query: query, Args: args})
	return fakeResult{}, nil
}

func (f *fakePG) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, fmt.Errorf("fake postgres has no rows")
}

func (f *fakePG) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return &sql.Row{}
}

func (f *fakePG) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	return fmt.Errorf("fake postgres has no transactions")
}

func (f *fakePG) HealthCheck(ctx context.Context) (*postgres.HealthStatus, error) {
	return &postgres.HealthStatus{Connected: true}, nil
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }
