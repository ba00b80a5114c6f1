package main

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/valyala/fasthttp"

	"rowlock/rl"
)

type Getter interface {
	Get(key []byte) ([]byte, io.Closer, error)
}
type Setter interface {
	Set(key, value []byte, _ *pebble.WriteOptions) error
}

func Int64ToByte(val int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(val))
	return buf
}
func ByteToInt64(d []byte) int64 {
	return int64(binary.BigEndian.Uint64(d))
}

func GetInt64(key []byte, b Getter) (*int64, error) {
	d, closer, err := b.Get(key)
	if err != nil && err != pebble.ErrNotFound {
		return nil, fmt.Errorf("DB ERR %v", err.Error())
	}
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	defer closer.Close()
	v := ByteToInt64(d)
	return &v, nil
}

func SetInt64(key []byte, val int64, b Setter) error {
	return b.Set(key, Int64ToByte(val), pebble.NoSync)
}

// TableID|Table|0|Seq
// 0 byte delimiter keeps table names prefix-free, big-endian seq keeps
// iteration in append order
func rowKey(table string, seq int64) []byte {
	b := make([]byte, 0, len(table)+10)
	b = append(b, byte(rl.RowsPrefix))
	b = append(b, table...)
	b = append(b, 0)
	b = append(b, Int64ToByte(seq)...)
	return b
}

// [lower, upper) bounds covering every row of a table
func rowBounds(table string) ([]byte, []byte) {
	lo := make([]byte, 0, len(table)+2)
	lo = append(lo, byte(rl.RowsPrefix))
	lo = append(lo, table...)
	lo = append(lo, 0)
	hi := make([]byte, 0, len(table)+2)
	hi = append(hi, byte(rl.RowsPrefix))
	hi = append(hi, table...)
	hi = append(hi, 1)
	return lo, hi
}

func seqKey(table string) []byte {
	b := make([]byte, 0, len(table)+1)
	b = append(b, byte(rl.SeqPrefix))
	b = append(b, table...)
	return b
}

func getKey(ctx *fasthttp.RequestCtx) (string, error) {
	key := ctx.UserValue("key").(string)
	if len(key) > 255 || len(key) == 0 {
		return "", fmt.Errorf("key len is not in range 0~255")
	}
	for _, v := range key {
		if v == 0 {
			return "", fmt.Errorf("0 is not allowed as a character in key")
		}
	}
	return key, nil
}
