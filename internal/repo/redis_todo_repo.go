package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	dom "github.com/birlikkoshan/todo-api/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyNextID     = "todo:next_id"
	keyIDTable    = "todo:ids"
	keyTodoPrefix = "todo:item:"

	fieldID        = "id"
	fieldTitle     = "title"
	fieldCompleted = "completed"
)

var errBadRecord = errors.New("unexpected record shape")

// saveScript allocates the next id and writes the item and its id table entry
// in one step.
// KEYS: next id counter, id table, item key. ARGV: native key, title, completed.
var saveScript = redis.NewScript(`
local id = redis.call('INCR', KEYS[1])
redis.call('HSET', KEYS[3], 'id', id, 'title', ARGV[2], 'completed', ARGV[3])
redis.call('HSET', KEYS[2], id, ARGV[1])
return id
`)

// updateScript writes the item only while it still exists.
// KEYS: item key. ARGV: title, completed. Returns 0 if the item is gone.
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'title', ARGV[1], 'completed', ARGV[2])
return 1
`)

// RedisTodoRepo stores each todo as a Redis hash keyed by a UUIDv7. Integer ids
// come from the keyNextID counter and the keyIDTable hash maps them to native
// keys, so ids survive restarts and are shared by every process on the same
// Redis. ids caches that table locally.
type RedisTodoRepo struct {
	rdb *redis.Client
	ids *IDMap
}

func NewRedisTodoRepo(rdb *redis.Client) *RedisTodoRepo {
	return &RedisTodoRepo{rdb: rdb, ids: NewIDMap()}
}

// FindAll reads the id table and every item it names, refreshing the local cache.
func (r *RedisTodoRepo) FindAll(ctx context.Context) ([]dom.Todo, error) {
	table, err := r.rdb.HGetAll(ctx, keyIDTable).Result()
	if err != nil {
		return nil, storageErr("find all", err)
	}
	ids := make([]int64, 0, len(table))
	for raw := range table {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, storageErr("find all", fmt.Errorf("%w: id %q", errBadRecord, raw))
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	if _, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = p.HGetAll(ctx, itemKey(table[strconv.FormatInt(id, 10)]))
		}
		return nil
	}); err != nil {
		return nil, storageErr("find all", err)
	}

	live := make(map[int64]string, len(ids))
	list := make([]dom.Todo, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			// deleted between the two reads
			continue
		}
		t, err := decodeTodo(id, fields)
		if err != nil {
			return nil, storageErr("find all", err)
		}
		live[id] = table[strconv.FormatInt(id, 10)]
		list = append(list, t)
	}
	r.ids.Replace(live)
	return list, nil
}

func (r *RedisTodoRepo) FindByID(ctx context.Context, id int64) (dom.Todo, bool, error) {
	key, ok, err := r.resolve(ctx, id)
	if err != nil {
		return dom.Todo{}, false, storageErr("find by id", err)
	}
	if !ok {
		return dom.Todo{}, false, nil
	}
	fields, err := r.rdb.HGetAll(ctx, itemKey(key)).Result()
	if err != nil {
		return dom.Todo{}, false, storageErr("find by id", err)
	}
	if len(fields) == 0 {
		r.ids.Remove(id)
		return dom.Todo{}, false, nil
	}
	t, err := decodeTodo(id, fields)
	if err != nil {
		return dom.Todo{}, false, storageErr("find by id", err)
	}
	return t, true, nil
}

func (r *RedisTodoRepo) Save(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	native, err := uuid.NewV7()
	if err != nil {
		return dom.Todo{}, storageErr("save", err)
	}
	key := native.String()
	id, err := saveScript.Run(ctx, r.rdb,
		[]string{keyNextID, keyIDTable, itemKey(key)},
		key, t.Title(), strconv.FormatBool(t.Completed()),
	).Int64()
	if err != nil {
		return dom.Todo{}, storageErr("save", err)
	}
	r.ids.Put(id, key)
	return dom.ReconstructTodo(id, t.Title(), t.Completed()), nil
}

func (r *RedisTodoRepo) Update(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	key, ok, err := r.resolve(ctx, t.ID())
	if err != nil {
		return dom.Todo{}, storageErr("update", err)
	}
	if !ok {
		return dom.Todo{}, storageErr("update", ErrRecordMissing)
	}
	written, err := updateScript.Run(ctx, r.rdb,
		[]string{itemKey(key)},
		t.Title(), strconv.FormatBool(t.Completed()),
	).Int64()
	if err != nil {
		return dom.Todo{}, storageErr("update", err)
	}
	if written == 0 {
		r.ids.Remove(t.ID())
		return dom.Todo{}, storageErr("update", ErrRecordMissing)
	}
	return t, nil
}

func (r *RedisTodoRepo) Delete(ctx context.Context, id int64) error {
	key, ok, err := r.resolve(ctx, id)
	if err != nil {
		return storageErr("delete", err)
	}
	if !ok {
		return storageErr("delete", ErrRecordMissing)
	}
	var del *redis.IntCmd
	if _, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, itemKey(key))
		p.HDel(ctx, keyIDTable, strconv.FormatInt(id, 10))
		return nil
	}); err != nil {
		return storageErr("delete", err)
	}
	r.ids.Remove(id)
	if del.Val() == 0 {
		return storageErr("delete", ErrRecordMissing)
	}
	return nil
}

// resolve maps id to its native key, reading the id table on a cache miss.
func (r *RedisTodoRepo) resolve(ctx context.Context, id int64) (string, bool, error) {
	if key, ok := r.ids.Resolve(id); ok {
		return key, true, nil
	}
	key, err := r.rdb.HGet(ctx, keyIDTable, strconv.FormatInt(id, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	r.ids.Put(id, key)
	return key, true, nil
}

func itemKey(native string) string { return keyTodoPrefix + native }

// decodeTodo builds a todo from an item hash. The hash's own id field must
// agree with the id it was reached through.
func decodeTodo(id int64, fields map[string]string) (dom.Todo, error) {
	if raw, ok := fields[fieldID]; ok && raw != strconv.FormatInt(id, 10) {
		return dom.Todo{}, fmt.Errorf("%w: %s=%q, want %d", errBadRecord, fieldID, raw, id)
	}
	title, ok := fields[fieldTitle]
	if !ok {
		return dom.Todo{}, fmt.Errorf("%w: missing %s", errBadRecord, fieldTitle)
	}
	completed := false
	if raw, ok := fields[fieldCompleted]; ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return dom.Todo{}, fmt.Errorf("%w: %s=%q", errBadRecord, fieldCompleted, raw)
		}
		completed = v
	}
	return dom.ReconstructTodo(id, title, completed), nil
}
