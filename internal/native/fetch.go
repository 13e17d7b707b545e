package native

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/vellum-lang/vellum/internal/bytecode"
)

// Fetch builds the `fetch` native function (spec.md §6, §4.5 "Native
// host promises returned from plain-object method calls are wrapped"):
// the request runs on its own goroutine, and the VM promise it returns
// is resolved or rejected by posting a host event back onto the VM's own
// goroutine once the response (or an error) is in hand.
func Fetch(client *http.Client) *bytecode.NativeObject {
	if client == nil {
		client = http.DefaultClient
	}
	return &bytecode.NativeObject{
		Name: "fetch",
		Call: func(vm *bytecode.VM, args []bytecode.Value) (bytecode.Value, error) {
			if len(args) < 1 || !args[0].IsString() {
				return bytecode.Value{}, fmt.Errorf("fetch requires a URL string")
			}
			url := args[0].AsString()
			method := "GET"
			var body io.Reader
			if len(args) > 1 && args[1].IsObject() {
				opts := args[1].AsObject()
				if m, ok := opts.Get("method"); ok && m.IsString() {
					method = m.AsString()
				}
				if b, ok := opts.Get("body"); ok && b.IsString() {
					body = bytes.NewBufferString(b.AsString())
				}
			}

			p := bytecode.NewPendingPromise()
			vm.BeginHostOp()
			go func() {
				req, err := http.NewRequest(method, url, body)
				if err != nil {
					vm.PostHostEvent(func(vm *bytecode.VM) {
						vm.EndHostOp()
						p.Reject(vm, bytecode.StringValue(err.Error()))
					})
					return
				}
				resp, err := client.Do(req)
				if err != nil {
					vm.PostHostEvent(func(vm *bytecode.VM) {
						vm.EndHostOp()
						p.Reject(vm, bytecode.StringValue(err.Error()))
					})
					return
				}
				defer resp.Body.Close()
				data, readErr := io.ReadAll(resp.Body)
				status := resp.StatusCode
				vm.PostHostEvent(func(vm *bytecode.VM) {
					vm.EndHostOp()
					if readErr != nil {
						p.Reject(vm, bytecode.StringValue(readErr.Error()))
						return
					}
					p.Resolve(vm, bytecode.NativeValue(responseObject(status, data)))
				})
			}()
			return bytecode.PromiseValue(p), nil
		},
	}
}

// responseObject is the native object fetch's promise resolves to: a
// minimal Response shape (status, ok, text(), json()).
func responseObject(status int, body []byte) *bytecode.NativeObject {
	return &bytecode.NativeObject{
		Name: "Response",
		GetProperty: func(name string) (bytecode.Value, bool) {
			switch name {
			case "status":
				return bytecode.NumberValue(float64(status)), true
			case "ok":
				return bytecode.BoolValue(status >= 200 && status < 300), true
			}
			return bytecode.Value{}, false
		},
		CallMethod: func(vm *bytecode.VM, name string, args []bytecode.Value) (bytecode.Value, bool, error) {
			switch name {
			case "text":
				p := bytecode.NewPendingPromise()
				p.Resolve(vm, bytecode.StringValue(string(body)))
				return bytecode.PromiseValue(p), true, nil
			case "json":
				p := bytecode.NewPendingPromise()
				if !gjson.ValidBytes(body) {
					p.Reject(vm, bytecode.StringValue("invalid JSON response"))
				} else {
					p.Resolve(vm, gjsonToValue(gjson.ParseBytes(body)))
				}
				return bytecode.PromiseValue(p), true, nil
			}
			return bytecode.Value{}, false, nil
		},
	}
}

// gjsonToValue converts a parsed gjson.Result tree into the VM's value
// model, the same traversal this module already uses to decode the
// incoming ESTree JSON (internal/jsonast/decode.go) rather than a
// second hand-rolled interface{} walk. ForEach visits object members
// in the order they appear in the response body, which this core
// treats as observable (spec.md §3: "ordered own-property map").
func gjsonToValue(r gjson.Result) bytecode.Value {
	switch r.Type {
	case gjson.Null:
		return bytecode.NullValue()
	case gjson.False:
		return bytecode.BoolValue(false)
	case gjson.True:
		return bytecode.BoolValue(true)
	case gjson.Number:
		return bytecode.NumberValue(r.Num)
	case gjson.String:
		return bytecode.StringValue(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var elems []bytecode.Value
			r.ForEach(func(_, v gjson.Result) bool {
				elems = append(elems, gjsonToValue(v))
				return true
			})
			return bytecode.ArrayValue(bytecode.NewArrayInstance(elems))
		}
		o := bytecode.NewObjectInstance()
		r.ForEach(func(k, v gjson.Result) bool {
			o.Set(k.String(), gjsonToValue(v))
			return true
		})
		return bytecode.ObjectValue(o)
	default:
		return bytecode.NullValue()
	}
}
