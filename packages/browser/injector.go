package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/tabfetch/packages/dispatch"
	tfhttp "github.com/abdul-hamid-achik/tabfetch/packages/http"
	"github.com/abdul-hamid-achik/tabfetch/packages/request"
	"github.com/dop251/goja"
	"github.com/rs/zerolog"
)

// Injector runs scripts inside a tab. Each injection gets a fresh runtime
// whose fetch sends with the page cookie store and the tab's origin.
type Injector struct {
	tabs    *TabStore
	jar     http.CookieJar
	options []tfhttp.ClientOption
}

// NewInjector returns an Injector for the tabs in store. The client options
// configure the network stack of the page, such as proxy or TLS checks.
func NewInjector(tabs *TabStore, jar http.CookieJar, opts ...tfhttp.ClientOption) *Injector {
	return &Injector{tabs: tabs, jar: jar, options: opts}
}

// Inject evaluates script, which must evaluate to a function, and calls it
// with args. The function's return value is the single result; undefined
// and null yield a result with no data.
func (i *Injector) Inject(ctx context.Context, pageID string, script dispatch.Script, args any) ([]dispatch.InjectionResult, error) {
	tab, err := i.tabs.Get(ctx, pageID)
	if err != nil {
		return nil, err
	}

	opts := make([]tfhttp.ClientOption, 0, len(i.options)+2)
	opts = append(opts, i.options...)
	opts = append(opts, tfhttp.WithJar(i.jar), tfhttp.WithOrigin(tab.URL))
	client := tfhttp.NewClient(opts...)

	vm := goja.New()
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	if err := bindConsole(ctx, vm, tab); err != nil {
		return nil, err
	}
	if err := vm.Set("fetch", fetchFunc(ctx, vm, client)); err != nil {
		return nil, fmt.Errorf("binding fetch: %w", err)
	}

	arg, err := cloneArgs(args)
	if err != nil {
		return nil, err
	}

	value, err := vm.RunScript(script.Name, script.Source)
	if err != nil {
		return nil, scriptError(ctx, script.Name, err)
	}
	fn, ok := goja.AssertFunction(value)
	if !ok {
		return nil, fmt.Errorf("script %s does not evaluate to a function", script.Name)
	}

	ret, err := fn(goja.Undefined(), vm.ToValue(arg))
	if err != nil {
		return nil, scriptError(ctx, script.Name, err)
	}

	if ret == nil || goja.IsUndefined(ret) || goja.IsNull(ret) {
		return []dispatch.InjectionResult{{}}, nil
	}
	data, err := json.Marshal(ret.Export())
	if err != nil {
		return nil, fmt.Errorf("serializing result of %s: %w", script.Name, err)
	}
	return []dispatch.InjectionResult{{Result: data}}, nil
}

// cloneArgs passes args through JSON so the page receives plain data.
func cloneArgs(args any) (any, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("serializing script arguments: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("serializing script arguments: %w", err)
	}
	return out, nil
}

func scriptError(ctx context.Context, name string, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return fmt.Errorf("script %s: %w", name, err)
}

func bindConsole(ctx context.Context, vm *goja.Runtime, tab *Tab) error {
	logger := zerolog.Ctx(ctx).With().Str("tab", tab.ID).Logger()
	console := vm.NewObject()
	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		logger.Debug().Msg(strings.Join(parts, " "))
		return goja.Undefined()
	}
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(name, logFn); err != nil {
			return fmt.Errorf("binding console: %w", err)
		}
	}
	return vm.Set("console", console)
}

type fetchInit struct {
	Method  string
	Headers map[string]string
	Body    string
}

// fetchFunc builds a synchronous fetch. Transport failures are thrown as
// the error text so a script's String(e) matches the background message.
func fetchFunc(ctx context.Context, vm *goja.Runtime, client *tfhttp.Client) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		url := call.Argument(0).String()
		init := parseFetchInit(call.Argument(1))

		d, err := request.NewDescriptor(url, init.Method, init.Headers, init.Body)
		if err != nil {
			panic(vm.NewTypeError(err.Error()))
		}

		resp, err := client.Send(ctx, d)
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return responseObject(vm, resp)
	}
}

func parseFetchInit(v goja.Value) fetchInit {
	init := fetchInit{Method: http.MethodGet, Headers: map[string]string{}}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return init
	}
	fields, ok := v.Export().(map[string]interface{})
	if !ok {
		return init
	}

	if m, ok := fields["method"].(string); ok && m != "" {
		init.Method = strings.ToUpper(m)
	}
	if h, ok := fields["headers"].(map[string]interface{}); ok {
		for k, val := range h {
			init.Headers[k] = fmt.Sprint(val)
		}
	}
	switch b := fields["body"].(type) {
	case nil:
	case string:
		init.Body = b
	default:
		init.Body = fmt.Sprint(b)
	}
	return init
}

func responseObject(vm *goja.Runtime, resp *tfhttp.Response) goja.Value {
	obj := vm.NewObject()
	_ = obj.Set("ok", resp.OK)
	_ = obj.Set("status", resp.Status)
	_ = obj.Set("statusText", resp.StatusText)

	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := vm.NewObject()
	_ = headers.Set("get", func(call goja.FunctionCall) goja.Value {
		v, ok := resp.Headers[strings.ToLower(call.Argument(0).String())]
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(v)
	})
	_ = headers.Set("forEach", func(call goja.FunctionCall) goja.Value {
		cb, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("headers.forEach: callback is not a function"))
		}
		for _, k := range keys {
			if _, err := cb(goja.Undefined(), vm.ToValue(resp.Headers[k]), vm.ToValue(k)); err != nil {
				panic(err)
			}
		}
		return goja.Undefined()
	})
	_ = obj.Set("headers", headers)

	body := resp.Body
	_ = obj.Set("text", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(body)
	})
	return obj
}
