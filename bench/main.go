package main

// Drives concurrent load-mutate-commit cycles against a running rowlock
// instance and reports how the commits split between success,
// VERSION_CONFLICT and LOCK_FAIL. More workers per key = more conflicts,
// that's the point.

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

type slot struct {
	Holder    string `json:"holder"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type loadResponse struct {
	State   map[string]map[string]*slot `json:"state"`
	Version int64                       `json:"version"`
}

type commitRequest struct {
	State   map[string]map[string]*slot `json:"state"`
	Version int64                       `json:"version"`
	Holder  string                      `json:"holder"`
}

type commitResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

var okCount, conflictCount, lockFailCount, errCount int64

func worker(c *fasthttp.Client, u string, keys, n int, lanes, blocks []string) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("2024-01-%02d", rnd.Intn(keys)+1)
		url := u + "/partition/" + key

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()

		req.Header.SetMethod("GET")
		req.SetRequestURI(url)
		if err := c.Do(req, resp); err != nil {
			panic(err)
		}
		var loaded loadResponse
		if err := json.Unmarshal(resp.Body(), &loaded); err != nil {
			panic(err)
		}

		lane := lanes[rnd.Intn(len(lanes))]
		block := blocks[rnd.Intn(len(blocks))]
		holder := fmt.Sprintf("worker-%d", rnd.Intn(1000))
		if loaded.State[lane] == nil {
			loaded.State[lane] = map[string]*slot{}
		}
		loaded.State[lane][block] = &slot{Holder: holder}

		d, err := json.Marshal(commitRequest{
			State:   loaded.State,
			Version: loaded.Version,
			Holder:  holder,
		})
		if err != nil {
			panic(err)
		}
		req.Reset()
		resp.Reset()
		req.Header.SetMethod("POST")
		req.SetRequestURI(url)
		req.SetBody(d)
		if err := c.Do(req, resp); err != nil {
			panic(err)
		}
		var committed commitResponse
		_ = json.Unmarshal(resp.Body(), &committed)
		switch {
		case committed.OK:
			atomic.AddInt64(&okCount, 1)
		case committed.Reason == "VERSION_CONFLICT":
			atomic.AddInt64(&conflictCount, 1)
		case committed.Reason == "LOCK_FAIL":
			atomic.AddInt64(&lockFailCount, 1)
		default:
			atomic.AddInt64(&errCount, 1)
		}

		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}
}

func main() {
	u := flag.String("url", "http://localhost:8090", "rowlock base url")
	keys := flag.Int("keys", 7, "number of partition keys to spread load over")
	parallel := flag.Int("parallel", 20, "concurrent workers")
	n := flag.Int("n", 100, "commits per worker")
	flag.Parse()

	lanes := []string{"A", "B"}
	blocks := []string{"LUNCHA", "LUNCHB", "AFTER"}

	c := &fasthttp.Client{
		MaxConnsPerHost: 10000,
	}

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < *parallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(c, *u, *keys, *n, lanes, blocks)
		}()
	}
	wg.Wait()

	total := int64(*parallel * *n)
	log.Printf("%d commits in %.2fs: %d ok, %d conflict, %d lock_fail, %d other",
		total, time.Since(start).Seconds(), okCount, conflictCount, lockFailCount, errCount)
}
