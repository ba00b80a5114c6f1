package main

import (
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"rowlock/rl"
)

type LoadResponse struct {
	State   PartitionState `json:"state"`
	Version int64          `json:"version"`
}

type CommitRequest struct {
	State   PartitionState `json:"state"`
	Version int64          `json:"version"`
	Holder  string         `json:"holder,omitempty"`
	// NoLock skips the exclusive lock and relies on the version check
	// alone. Cheaper, but two such commits racing can both pass the
	// check. Off by default on purpose.
	NoLock bool `json:"noLock,omitempty"`
	TTLSec int  `json:"ttl,omitempty"`
}

type CommitResponse struct {
	OK      bool   `json:"ok"`
	Reason  string `json:"reason,omitempty"`
	Version int64  `json:"version,omitempty"`
}

type LockResponse struct {
	Token string `json:"token"`
}

type WatchResponse struct {
	Version int64 `json:"version"`
}

func writeJSON(ctx *fasthttp.RequestCtx, v interface{}) {
	d, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), 500)
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetBody(d)
}

func LoadHandler(ctx *fasthttp.RequestCtx) {
	key, err := getKey(ctx)
	if err != nil {
		ctx.Error(err.Error(), 400)
		return
	}
	st, ver, err := coord.Load(key)
	if err != nil {
		ctx.Error("err loading: "+err.Error(), 500)
		return
	}
	writeJSON(ctx, LoadResponse{State: st, Version: ver})
}

func CommitHandler(ctx *fasthttp.RequestCtx) {
	key, err := getKey(ctx)
	if err != nil {
		ctx.Error(err.Error(), 400)
		return
	}
	var req CommitRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.Error(err.Error(), 400)
		return
	}
	if req.State == nil {
		ctx.Error("state is required", 400)
		return
	}
	ttl := time.Duration(cfg.LockTTLSec) * time.Second
	if req.TTLSec > 0 {
		ttl = time.Duration(req.TTLSec) * time.Second
	}
	ok, reason, err := coord.Commit(key, req.State, req.Version, req.Holder, !req.NoLock, ttl)
	if err != nil {
		ctx.Error("err committing: "+err.Error(), 500)
		return
	}
	if !ok {
		ctx.SetStatusCode(409)
		writeJSON(ctx, CommitResponse{OK: false, Reason: reason})
		return
	}
	writeJSON(ctx, CommitResponse{OK: true, Version: req.Version + 1})
}

func LockHandler(ctx *fasthttp.RequestCtx) {
	key, err := getKey(ctx)
	if err != nil {
		ctx.Error(err.Error(), 400)
		return
	}
	args := ctx.Request.URI().QueryArgs()
	dur := cfg.LockTTLSec
	if d := args.Peek("dur"); len(d) > 0 {
		dur, err = strconv.Atoi(string(d))
		if err != nil || dur <= 0 {
			ctx.Error("failed to parse dur", 400)
			return
		}
	}
	holder := string(args.Peek("holder"))
	token, err := locks.Acquire(key, holder,
		time.Duration(dur)*time.Second,
		cfg.LockRetries,
		time.Duration(cfg.LockBackoffMS)*time.Millisecond)
	if err == rl.ErrNotLocked {
		ctx.Error(err.Error(), 409)
		return
	}
	if err != nil {
		ctx.Error("err locking: "+err.Error(), 500)
		return
	}
	writeJSON(ctx, LockResponse{Token: token})
}

func UnlockHandler(ctx *fasthttp.RequestCtx) {
	key, err := getKey(ctx)
	if err != nil {
		ctx.Error(err.Error(), 400)
		return
	}
	token := string(ctx.Request.URI().QueryArgs().Peek("token"))
	if token == "" {
		ctx.Error("token is required", 400)
		return
	}
	if err := locks.Release(key, token); err != nil {
		ctx.Error("err unlocking: "+err.Error(), 500)
		return
	}
}

func RenewHandler(ctx *fasthttp.RequestCtx) {
	key, err := getKey(ctx)
	if err != nil {
		ctx.Error(err.Error(), 400)
		return
	}
	args := ctx.Request.URI().QueryArgs()
	token := string(args.Peek("token"))
	if token == "" {
		ctx.Error("token is required", 400)
		return
	}
	dur := cfg.LockTTLSec
	if d := args.Peek("dur"); len(d) > 0 {
		dur, err = strconv.Atoi(string(d))
		if err != nil || dur <= 0 {
			ctx.Error("failed to parse dur", 400)
			return
		}
	}
	err = locks.Renew(key, token, time.Duration(dur)*time.Second)
	if err == rl.ErrNotLocked {
		ctx.Error(err.Error(), 409)
		return
	}
	if err != nil {
		ctx.Error("err renewing: "+err.Error(), 500)
		return
	}
}

func WatchHandler(ctx *fasthttp.RequestCtx) {
	key, err := getKey(ctx)
	if err != nil {
		ctx.Error(err.Error(), 400)
		return
	}
	args := ctx.Request.URI().QueryArgs()
	ver, err := strconv.ParseInt(string(args.Peek("ver")), 10, 64)
	if err != nil {
		ctx.Error("failed to parse ver", 400)
		return
	}
	wait := 30
	if w := args.Peek("wait"); len(w) > 0 {
		wait, err = strconv.Atoi(string(w))
		if err != nil || wait <= 0 || wait > 120 {
			ctx.Error("wait is not in range 1~120", 400)
			return
		}
	}
	writeJSON(ctx, WatchResponse{Version: coord.Watch(key, ver, wait)})
}
