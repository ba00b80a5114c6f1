package main

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"rowlock/rl"
)

func doReq(t *testing.T, method, url string, body interface{}) (int, []byte) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	if body != nil {
		d, err := json.Marshal(body)
		require.NoError(t, err)
		req.SetBody(d)
	}
	c := fasthttp.Client{}
	require.NoError(t, c.Do(req, resp))
	return resp.StatusCode(), append([]byte(nil), resp.Body()...)
}

func TestCommitFlowOverHTTP(t *testing.T) {
	base := "http://localhost" + testAddr + "/partition/2024-03-01"

	status, body := doReq(t, "GET", base, nil)
	require.Equal(t, 200, status)
	var loaded LoadResponse
	require.NoError(t, json.Unmarshal(body, &loaded))
	require.EqualValues(t, 0, loaded.Version)
	require.Nil(t, loaded.State["A"]["LUNCHA"])

	loaded.State["A"]["LUNCHA"] = &Slot{Holder: "alice", CreatedAt: "2024-03-01T11:00:00Z"}
	status, body = doReq(t, "POST", base, CommitRequest{
		State:   loaded.State,
		Version: loaded.Version,
		Holder:  "alice",
	})
	require.Equal(t, 200, status)
	var committed CommitResponse
	require.NoError(t, json.Unmarshal(body, &committed))
	require.True(t, committed.OK)
	require.EqualValues(t, 1, committed.Version)

	// stale version loses
	status, body = doReq(t, "POST", base, CommitRequest{
		State:   loaded.State,
		Version: 0,
		Holder:  "bob",
	})
	require.Equal(t, 409, status)
	require.NoError(t, json.Unmarshal(body, &committed))
	require.False(t, committed.OK)
	require.Equal(t, rl.ReasonConflict, committed.Reason)

	status, body = doReq(t, "GET", base, nil)
	require.Equal(t, 200, status)
	require.NoError(t, json.Unmarshal(body, &loaded))
	require.EqualValues(t, 1, loaded.Version)
	require.Equal(t, "alice", loaded.State["A"]["LUNCHA"].Holder)
}

func TestLockEndpoints(t *testing.T) {
	base := "http://localhost" + testAddr + "/partition/2024-03-02"

	status, body := doReq(t, "POST", base+"/lock?dur=30&holder=alice", nil)
	require.Equal(t, 200, status)
	var lock LockResponse
	require.NoError(t, json.Unmarshal(body, &lock))
	require.NotEmpty(t, lock.Token)

	status, _ = doReq(t, "POST", base+"/renew?dur=30&token="+lock.Token, nil)
	require.Equal(t, 200, status)

	// renewing with a token nobody holds is a 409, not a success
	status, _ = doReq(t, "POST", base+"/renew?dur=30&token=bogus", nil)
	require.Equal(t, 409, status)

	status, _ = doReq(t, "DELETE", base+"/lock?token="+lock.Token, nil)
	require.Equal(t, 200, status)

	// released, so a fresh acquire goes through at once
	status, body = doReq(t, "POST", base+"/lock?dur=30&holder=bob", nil)
	require.Equal(t, 200, status)
	require.NoError(t, json.Unmarshal(body, &lock))
	require.NotEmpty(t, lock.Token)
}

func TestCommitRejectsMissingState(t *testing.T) {
	base := "http://localhost" + testAddr + "/partition/2024-03-03"
	status, _ := doReq(t, "POST", base, CommitRequest{Version: 0})
	require.Equal(t, 400, status)
}
