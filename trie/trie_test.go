package trie

import (
	"bytes"
	"testing"

	"github.com/corechain/execd/common"
)

func TestPutGetDelete(t *testing.T) {
	tr := NewEmpty(NewDatabase())
	entries := map[string]string{
		"doe":   "reindeer",
		"dog":   "puppy",
		"dogglesworth": "cat",
	}
	for k, v := range entries {
		if err := tr.Put([]byte(k), []byte(v)); err != nil {
			t.Fatalf("put %q: %v", k, err)
		}
	}
	for k, v := range entries {
		got, err := tr.Get([]byte(k))
		if err != nil {
			t.Fatalf("get %q: %v", k, err)
		}
		if string(got) != v {
			t.Fatalf("get %q = %q, want %q", k, got, v)
		}
	}
	if err := tr.Delete([]byte("dog")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := tr.Get([]byte("dog"))
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("expected dog absent after delete, got %q", got)
	}
	if got, _ := tr.Get([]byte("doe")); string(got) != "reindeer" {
		t.Fatalf("unrelated key disturbed by delete: %q", got)
	}
}

func TestPutOverwrite(t *testing.T) {
	tr := NewEmpty(NewDatabase())
	must(t, tr.Put([]byte("key"), []byte("v1")))
	must(t, tr.Put([]byte("key"), []byte("v2")))
	got, err := tr.Get([]byte("key"))
	if err != nil || string(got) != "v2" {
		t.Fatalf("overwrite failed: %q, %v", got, err)
	}
}

func TestRootOrderIndependent(t *testing.T) {
	pairs := [][2]string{{"a", "1"}, {"ab", "2"}, {"abc", "3"}, {"b", "4"}}
	t1 := NewEmpty(NewDatabase())
	for _, p := range pairs {
		must(t, t1.Put([]byte(p[0]), []byte(p[1])))
	}
	h1, err := t1.Commit()
	if err != nil {
		t.Fatal(err)
	}
	t2 := NewEmpty(NewDatabase())
	for i := len(pairs) - 1; i >= 0; i-- {
		must(t, t2.Put([]byte(pairs[i][0]), []byte(pairs[i][1])))
	}
	h2, err := t2.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatalf("root hash depends on insertion order: %s vs %s", h1, h2)
	}
}

func TestEmptyTrieHash(t *testing.T) {
	tr := NewEmpty(NewDatabase())
	h, err := tr.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if h != common.KeccakEmptyTrie {
		t.Fatalf("empty trie root = %s, want %s", h, common.KeccakEmptyTrie)
	}
}

func TestCommitThenReopenFromDatabase(t *testing.T) {
	db := NewDatabase()
	tr := NewEmpty(db)
	must(t, tr.Put([]byte("somewhatlongkeythatwontembed"), bytes.Repeat([]byte{0xaa}, 40)))
	must(t, tr.Put([]byte("anotherlongishkeyforabranch."), bytes.Repeat([]byte{0xbb}, 40)))
	root, err := tr.Commit()
	if err != nil {
		t.Fatal(err)
	}

	reopened, err := New(root, db)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.Get([]byte("somewhatlongkeythatwontembed"))
	if err != nil {
		t.Fatalf("get from reopened trie: %v", err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{0xaa}, 40)) {
		t.Fatalf("value mismatch after reopen: %x", got)
	}
}

func TestPrunedTrieMissingNode(t *testing.T) {
	db := NewDatabase()
	tr := NewEmpty(db)
	must(t, tr.Put([]byte("keyoneeeeeeeeeeeeeeeeeeeeeeeee"), bytes.Repeat([]byte{1}, 40)))
	must(t, tr.Put([]byte("keytwoooooooooooooooooooooooo"), bytes.Repeat([]byte{2}, 40)))
	root, err := tr.Commit()
	if err != nil {
		t.Fatal(err)
	}

	emptyReader := NewDatabase()
	pruned, err := New(root, emptyReader)
	if err != nil {
		t.Fatal(err)
	}
	_, err = pruned.Get([]byte("keyoneeeeeeeeeeeeeeeeeeeeeeeee"))
	if _, ok := err.(*MissingNodeError); !ok {
		t.Fatalf("expected MissingNodeError over an empty reader, got %v", err)
	}
}

func TestProveAndVerify(t *testing.T) {
	db := NewDatabase()
	tr := NewEmpty(db)
	keys := []string{"alpha-account-one", "alpha-account-two", "beta-account"}
	for i, k := range keys {
		must(t, tr.Put([]byte(k), []byte{byte(i), byte(i), byte(i)}))
	}
	root, err := tr.Commit()
	if err != nil {
		t.Fatal(err)
	}

	proofDB := make(MapProofDB)
	proof, err := tr.Prove([]byte("alpha-account-one"), proofDB)
	if err != nil {
		t.Fatal(err)
	}
	val, err := VerifyProof(root, []byte("alpha-account-one"), proof)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !bytes.Equal(val, []byte{0, 0, 0}) {
		t.Fatalf("proven value mismatch: %x", val)
	}

	absProof, err := tr.Prove([]byte("nonexistent-account-xyz"), proofDB)
	if err != nil {
		t.Fatal(err)
	}
	val, err = VerifyProof(root, []byte("nonexistent-account-xyz"), absProof)
	if err != nil {
		t.Fatalf("exclusion verify failed: %v", err)
	}
	if val != nil {
		t.Fatalf("expected exclusion proof to report absence, got %x", val)
	}
}

func TestSecureTriePreimage(t *testing.T) {
	st := NewSecureEmpty(NewDatabase())
	addr := []byte{0x01, 0x02, 0x03, 0x04}
	must(t, st.Put(addr, []byte("account-rlp-bytes")))
	got, err := st.Get(addr)
	if err != nil || string(got) != "account-rlp-bytes" {
		t.Fatalf("secure trie get mismatch: %q, %v", got, err)
	}
	hashed := common.Keccak256Hash(addr)
	pre, ok := st.Preimage(hashed)
	if !ok || !bytes.Equal(pre, addr) {
		t.Fatalf("preimage lookup failed: %x, %v", pre, ok)
	}
}

func TestVerifyRangeProofWholeTrie(t *testing.T) {
	db := NewDatabase()
	tr := NewEmpty(db)
	keys := [][]byte{[]byte("k1"), []byte("k2"), []byte("k3")}
	vals := [][]byte{[]byte("v1"), []byte("v2"), []byte("v3")}
	for i := range keys {
		must(t, tr.Put(keys[i], vals[i]))
	}
	root, err := tr.Commit()
	if err != nil {
		t.Fatal(err)
	}
	valid, hasMore, err := VerifyRangeProof(root, keys, vals, nil, nil)
	if err != nil {
		t.Fatalf("verify range proof: %v", err)
	}
	if !valid {
		t.Fatal("expected whole-trie range proof to be valid")
	}
	if hasMore {
		t.Fatal("expected has_more=false for the complete key set")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
