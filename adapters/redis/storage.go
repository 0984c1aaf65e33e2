// Package redis implements a RecordStore on Redis hashes for deployments
// that already run Redis and want the leveling state off the bot host.
//
// Layout:
//   - lb:{tenant}:{member}  hash: name, level, xp, total_xp
//   - lb:{tenant}:members   set of member IDs
//   - lb:tenants            set of tenant IDs
package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"levelkit/core"
)

// Config holds connection settings.
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns settings for a local Redis.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store is a Redis-backed RecordStore.
type Store struct {
	client *redis.Client
}

// New connects and pings the server.
func New(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: connect: %w", err)
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client, mainly for tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error { return s.client.Close() }

func recordKey(tenant core.TenantID, member core.MemberID) string {
	return fmt.Sprintf("lb:%d:%d", tenant, member)
}

func membersKey(tenant core.TenantID) string {
	return fmt.Sprintf("lb:%d:members", tenant)
}

const tenantsKey = "lb:tenants"

func (s *Store) Get(ctx context.Context, tenant core.TenantID, member core.MemberID) (*core.MemberRecord, error) {
	fields, err := s.client.HGetAll(ctx, recordKey(tenant, member)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return parseRecord(tenant, member, fields)
}

func parseRecord(tenant core.TenantID, member core.MemberID, fields map[string]string) (*core.MemberRecord, error) {
	level, err := strconv.Atoi(fields["level"])
	if err != nil {
		return nil, fmt.Errorf("redis: bad level field: %w", err)
	}
	xp, err := strconv.ParseInt(fields["xp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: bad xp field: %w", err)
	}
	total, err := strconv.ParseInt(fields["total_xp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis: bad total_xp field: %w", err)
	}
	return &core.MemberRecord{
		TenantID: tenant,
		MemberID: member,
		Name:     fields["name"],
		Level:    level,
		XP:       xp,
		TotalXP:  total,
	}, nil
}

func (s *Store) Upsert(ctx context.Context, rec core.MemberRecord) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, recordKey(rec.TenantID, rec.MemberID),
		"name", rec.Name,
		"level", rec.Level,
		"xp", rec.XP,
		"total_xp", rec.TotalXP,
	)
	pipe.SAdd(ctx, membersKey(rec.TenantID), int64(rec.MemberID))
	pipe.SAdd(ctx, tenantsKey, int64(rec.TenantID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: upsert: %w", err)
	}
	return nil
}

func (s *Store) IncrementXP(ctx context.Context, tenant core.TenantID, member core.MemberID, amount int64) error {
	exists, err := s.client.Exists(ctx, recordKey(tenant, member)).Result()
	if err != nil {
		return fmt.Errorf("redis: increment: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("redis: no record for member %d in tenant %d", member, tenant)
	}
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, recordKey(tenant, member), "xp", amount)
	pipe.HIncrBy(ctx, recordKey(tenant, member), "total_xp", amount)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: increment: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, tenant core.TenantID, member core.MemberID) (bool, error) {
	deleted, err := s.client.Del(ctx, recordKey(tenant, member)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: delete: %w", err)
	}
	if err := s.client.SRem(ctx, membersKey(tenant), int64(member)).Err(); err != nil {
		return false, fmt.Errorf("redis: delete: %w", err)
	}
	return deleted > 0, nil
}

func (s *Store) Scan(ctx context.Context, tenant core.TenantID) ([]core.MemberRecord, error) {
	ids, err := s.memberIDs(ctx, tenant)
	if err != nil {
		return nil, err
	}
	recs := make([]core.MemberRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, tenant, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].MemberID < recs[j].MemberID })
	return recs, nil
}

func (s *Store) ScanAll(ctx context.Context) ([]core.MemberRecord, error) {
	tenants, err := s.tenantIDs(ctx)
	if err != nil {
		return nil, err
	}
	var all []core.MemberRecord
	for _, tenant := range tenants {
		recs, err := s.Scan(ctx, tenant)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

// Rank sorts the tenant's records on demand; there is no maintained sorted
// structure.
func (s *Store) Rank(ctx context.Context, tenant core.TenantID, member core.MemberID) (*int, error) {
	target, err := s.Get(ctx, tenant, member)
	if err != nil || target == nil {
		return nil, err
	}
	recs, err := s.Scan(ctx, tenant)
	if err != nil {
		return nil, err
	}
	rank := 1
	for _, rec := range recs {
		if rec.TotalXP > target.TotalXP || (rec.TotalXP == target.TotalXP && rec.MemberID < member) {
			rank++
		}
	}
	return &rank, nil
}

func (s *Store) Count(ctx context.Context, tenant *core.TenantID) (int64, error) {
	if tenant != nil {
		n, err := s.client.SCard(ctx, membersKey(*tenant)).Result()
		if err != nil {
			return 0, fmt.Errorf("redis: count: %w", err)
		}
		return n, nil
	}
	tenants, err := s.tenantIDs(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, t := range tenants {
		n, err := s.client.SCard(ctx, membersKey(t)).Result()
		if err != nil {
			return 0, fmt.Errorf("redis: count: %w", err)
		}
		total += n
	}
	return total, nil
}

func (s *Store) Wipe(ctx context.Context, tenant *core.TenantID) error {
	tenants, err := s.wipeScope(ctx, tenant)
	if err != nil {
		return err
	}
	for _, t := range tenants {
		ids, err := s.memberIDs(ctx, t)
		if err != nil {
			return err
		}
		pipe := s.client.TxPipeline()
		for _, id := range ids {
			pipe.Del(ctx, recordKey(t, id))
		}
		pipe.Del(ctx, membersKey(t))
		pipe.SRem(ctx, tenantsKey, int64(t))
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis: wipe: %w", err)
		}
	}
	return nil
}

func (s *Store) ResetAll(ctx context.Context, tenant *core.TenantID) error {
	tenants, err := s.wipeScope(ctx, tenant)
	if err != nil {
		return err
	}
	for _, t := range tenants {
		ids, err := s.memberIDs(ctx, t)
		if err != nil {
			return err
		}
		pipe := s.client.TxPipeline()
		for _, id := range ids {
			pipe.HSet(ctx, recordKey(t, id), "level", 0, "xp", 0, "total_xp", 0)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis: reset: %w", err)
		}
	}
	return nil
}

func (s *Store) wipeScope(ctx context.Context, tenant *core.TenantID) ([]core.TenantID, error) {
	if tenant != nil {
		return []core.TenantID{*tenant}, nil
	}
	return s.tenantIDs(ctx)
}

func (s *Store) memberIDs(ctx context.Context, tenant core.TenantID) ([]core.MemberID, error) {
	raw, err := s.client.SMembers(ctx, membersKey(tenant)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: members: %w", err)
	}
	ids := make([]core.MemberID, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: bad member id %q: %w", v, err)
		}
		ids = append(ids, core.MemberID(id))
	}
	return ids, nil
}

func (s *Store) tenantIDs(ctx context.Context) ([]core.TenantID, error) {
	raw, err := s.client.SMembers(ctx, tenantsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: tenants: %w", err)
	}
	ids := make([]core.TenantID, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis: bad tenant id %q: %w", v, err)
		}
		ids = append(ids, core.TenantID(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
