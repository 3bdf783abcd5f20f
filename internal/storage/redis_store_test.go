package storage

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisStoreAddAndContains(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewStore(TypeRedis, "", Options{RedisAddr: mr.Addr(), RedisKey: "test:posted"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if ok, err := store.Contains("harvard:9"); err != nil || ok {
		t.Fatalf("expected unseen id, ok=%v err=%v", ok, err)
	}
	if err := store.Add("harvard:9"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ok, err := store.Contains("harvard:9"); err != nil || !ok {
		t.Fatalf("expected seen id, ok=%v err=%v", ok, err)
	}

	members, err := mr.Members("test:posted")
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 1 || members[0] != "harvard:9" {
		t.Fatalf("unexpected set members %v", members)
	}
}

func TestRedisStoreFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewStore(TypeRedis, "", Options{RedisAddr: addr}); err == nil {
		t.Fatalf("expected ping failure for closed server")
	}
}
