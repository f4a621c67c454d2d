// This is a light wasm wrapper exposing just the compiler, for an
// in-browser rule playground. You don't need to include this in a
// server deployment.
package main

import (
	"syscall/js"
	"time"

	"github.com/dnsdga/lindef/compiler"
)

const timestampFormat = "2006-01-02 15:04:05"

func compile(this js.Value, args []js.Value) interface{} {
	source := args[0].String()
	timestampStr := args[1].String()
	withGroupBy := args[2].Bool()
	callback := args[3]

	timestamp := time.Now()
	if timestampStr != "" {
		t, err := time.Parse(timestampFormat, timestampStr)
		if err != nil {
			callback.Invoke(err.Error(), js.Null())
			return true
		}
		timestamp = t
	}

	sql, err := compiler.Compile(source, compiler.Options{
		Timestamp:   timestamp,
		WithGroupBy: withGroupBy,
	})
	if err != nil {
		callback.Invoke(err.Error(), js.Null())
		return true
	}
	callback.Invoke(js.Null(), sql)
	return true
}

func main() {
	c := make(chan bool)
	js.Global().Set("_LINDEF", js.FuncOf(compile))
	<-c
}
