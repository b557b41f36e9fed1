// Package redistest serves the handful of commands the account cache uses
// from memory, through a go-redis hook, so tests need no Redis server.
package redistest

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Store is the in-memory keyspace behind a client returned by NewClient.
// TTLs are ignored.
type Store struct {
	mu   sync.Mutex
	data map[string]string
}

// NewClient returns a client whose commands never reach the network.
func NewClient() (*redis.Client, *Store) {
	st := &Store{data: map[string]string{}}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(st)
	return rdb, st
}

// Get returns the raw value under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores a raw value.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *Store) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("redistest: dial %s disabled", addr)
	}
}

func (s *Store) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, c := range cmds {
			_ = s.process(c)
		}
		return nil
	}
}

func (s *Store) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return s.process(cmd)
	}
}

func (s *Store) process(cmd redis.Cmder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := cmd.Args()
	name := strings.ToLower(str(args[0]))
	switch {
	case name == "get":
		c := cmd.(*redis.StringCmd)
		v, ok := s.data[str(args[1])]
		if !ok {
			c.SetErr(redis.Nil)
			return redis.Nil
		}
		c.SetVal(v)
	case name == "set" && hasFlag(args[3:], "nx"):
		c := cmd.(*redis.BoolCmd)
		key := str(args[1])
		if _, ok := s.data[key]; ok {
			c.SetVal(false)
			return nil
		}
		s.data[key] = str(args[2])
		c.SetVal(true)
	case name == "setnx":
		c := cmd.(*redis.BoolCmd)
		key := str(args[1])
		if _, ok := s.data[key]; ok {
			c.SetVal(false)
			return nil
		}
		s.data[key] = str(args[2])
		c.SetVal(true)
	case name == "set":
		s.data[str(args[1])] = str(args[2])
		if c, ok := cmd.(*redis.StatusCmd); ok {
			c.SetVal("OK")
		}
	case name == "del":
		var n int64
		for _, a := range args[1:] {
			if _, ok := s.data[str(a)]; ok {
				delete(s.data, str(a))
				n++
			}
		}
		cmd.(*redis.IntCmd).SetVal(n)
	case name == "evalsha" || name == "eval":
		// Only the revision compare-and-set script is supported:
		// KEYS[1], ARGV[1]=value, ARGV[2]=revision, ARGV[3]=ttl.
		c := cmd.(*redis.Cmd)
		key, value := str(args[3]), str(args[4])
		rev, _ := strconv.ParseInt(str(args[5]), 10, 64)
		if cur, ok := s.data[key]; ok {
			var stored struct {
				Rev *int64 `json:"rev"`
			}
			if json.Unmarshal([]byte(cur), &stored) == nil && stored.Rev != nil && *stored.Rev >= rev {
				c.SetVal(int64(0))
				return nil
			}
		}
		s.data[key] = value
		c.SetVal(int64(1))
	default:
		err := fmt.Errorf("redistest: unsupported command %q", name)
		cmd.SetErr(err)
		return err
	}
	return nil
}

func hasFlag(args []interface{}, flag string) bool {
	for _, a := range args {
		if strings.EqualFold(str(a), flag) {
			return true
		}
	}
	return false
}

func str(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
