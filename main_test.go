package main

import (
	"os"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
)

const testAddr = ":33123"

func TestMain(m *testing.M) {
	cfg.setDefaults()
	if err := Setup(NewMemStore()); err != nil {
		panic(err)
	}

	go func() {
		err := fasthttp.ListenAndServe(testAddr, newRouter().Handler)
		if err != nil {
			panic(err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	os.Exit(m.Run())
}
