package store

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// ToJSON and FromJSON adapt the teacher's contract/helpers.go generic
// ToJSON[T]/FromJSON[T] pair. The teacher aborts the whole wasm
// transaction on a marshal failure via sdk.Abort; this module returns
// an error instead since it is a plain Go library, not a wasm guest
// that panics back to a host. The teacher's CosmWasm/tinyjson
// dependency was never wired to these helpers in the retrieved
// source (see DESIGN.md), so encoding/json remains the codec here too.
func ToJSON[T any](v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshal")
	}
	return string(b), nil
}

func FromJSON[T any](data string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, errors.Wrap(err, "unmarshal")
	}
	return v, nil
}

// GetCount and SetCount adapt the teacher's getCount/setCount counter
// helpers (contract/helpers.go) used to mint sequential ids.
func GetCount(s Store, key string) uint64 {
	v, ok := s.Get(key)
	if !ok || v == "" {
		return 0
	}
	n, _ := strconv.ParseUint(v, 10, 64)
	return n
}

func SetCount(s Store, key string, n uint64) {
	s.Set(key, strconv.FormatUint(n, 10))
}

// NextID increments and returns the next sequential id for key.
func NextID(s Store, key string) uint64 {
	n := GetCount(s, key) + 1
	SetCount(s, key, n)
	return n
}
