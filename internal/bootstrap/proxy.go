// Package bootstrap wraps a Maquette worker launch so stdout stays
// JSON-only while the worker boots. Host requests the boot phase can
// answer are handled locally, the rest wait in a bounded queue until
// the worker prints its ready token on stderr, and every worker stdout
// line is classified before it can reach the host.
package bootstrap

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maquettehq/mqbridge/internal/wire"
)

const (
	// DefaultReadyToken is the stderr marker a stock worker prints once
	// its request loop is up.
	DefaultReadyToken = "MAQUETTE_READY"
	// DefaultQueueMax bounds the boot queue.
	DefaultQueueMax = 25
)

const maxLineBytes = 4 << 20

var startWorkerFn = startWorker

// Options configures one launch.
type Options struct {
	Command    []string          // worker argv; Command[0] is the binary
	Env        map[string]string // extra environment for the worker
	ReadyToken string            // defaults to DefaultReadyToken
	QueueMax   int               // defaults to DefaultQueueMax

	Stdin  io.Reader // defaults to os.Stdin
	Stdout io.Writer // defaults to os.Stdout
	Stderr io.Writer // defaults to os.Stderr
}

// Proxy shepherds one worker process from spawn to exit.
type Proxy struct {
	opts Options
	out  *wire.Output
	errw io.Writer

	mu     sync.Mutex
	ready  bool
	queue  *bootQueue
	worker io.Writer
}

// New builds a Proxy for opts, applying defaults for unset fields.
func New(opts Options) *Proxy {
	if opts.ReadyToken == "" {
		opts.ReadyToken = DefaultReadyToken
	}
	if opts.QueueMax < 1 {
		opts.QueueMax = DefaultQueueMax
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Proxy{
		opts:  opts,
		out:   wire.NewOutput(opts.Stdout),
		errw:  opts.Stderr,
		queue: newBootQueue(opts.QueueMax),
	}
}

// Run spawns the worker and relays until it exits. The returned code is
// the worker's exit code.
func (p *Proxy) Run() (int, error) {
	if len(p.opts.Command) == 0 {
		return 0, errors.New("no worker command configured")
	}

	proc, err := startWorkerFn(p.opts)
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.worker = proc.stdin
	p.mu.Unlock()

	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() {
		defer pumps.Done()
		p.pumpWorkerStdout(proc.stdout)
	}()
	go func() {
		defer pumps.Done()
		p.pumpWorkerStderr(proc.stderr)
	}()
	go p.pumpHostStdin(proc.stdin)

	pumps.Wait()
	code := proc.wait()
	p.failPending()
	return code, nil
}

// pumpWorkerStdout forwards protocol traffic to the host and diverts
// everything else to stderr, keeping stdout parseable.
func (p *Proxy) pumpWorkerStdout(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if looksLikeJSONRPC(line) {
			if err := p.out.WriteFrame([]byte(line)); err != nil {
				p.logf("stdout write: %v", err)
				return
			}
			continue
		}
		fmt.Fprintf(p.errw, "[worker-stdout] %s\n", line)
	}
}

// pumpWorkerStderr relays worker diagnostics and watches for the ready
// token that releases the boot queue.
func (p *Proxy) pumpWorkerStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, p.opts.ReadyToken) {
			p.markReady()
		}
		fmt.Fprintf(p.errw, "[worker-stderr] %s\n", line)
	}
}

// pumpHostStdin consumes host lines: local replies while booting, queue
// for the rest, verbatim forwarding once ready. Closing the worker's
// stdin on the way out is what tells the worker its host is gone.
func (p *Proxy) pumpHostStdin(workerIn io.WriteCloser) {
	defer workerIn.Close()

	scanner := bufio.NewScanner(p.opts.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var req map[string]any
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			p.logf("invalid JSON on stdin: %s", line)
			continue
		}
		method, _ := req["method"].(string)

		if !p.isReady() {
			if resp, handled := localReply(req); handled {
				if resp != nil {
					p.writeHostReply(resp)
				}
				if method == "shutdown" || method == "exit" {
					return
				}
				continue
			}
		}

		queued, err := p.deliver(req["id"], line)
		if err != nil {
			p.logf("writing to worker: %v", err)
			return
		}
		if queued {
			if method == wire.TypeToolsCall {
				p.logf("queued tools/call id=%v (worker booting)", req["id"])
			}
			continue
		}
		if method == "shutdown" || method == "exit" {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		p.logf("reading stdin: %v", err)
	}
}

// deliver forwards line to the worker, or queues it while the worker is
// still booting. The ready check and the queue insert share one lock so
// a request can never slip into the queue after the flush.
func (p *Proxy) deliver(id any, line string) (queued bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		if dropped, ok := p.queue.push(queuedRequest{id: id, line: line}); ok {
			p.logf("boot queue full; dropping oldest id=%v", dropped.id)
		}
		return true, nil
	}
	return false, p.writeWorkerLocked(line)
}

// markReady flips the proxy into pass-through mode and flushes the boot
// queue in arrival order.
func (p *Proxy) markReady() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return
	}
	p.ready = true
	items := p.queue.drain()
	for _, item := range items {
		if err := p.writeWorkerLocked(item.line); err != nil {
			p.logf("flushing queued request: %v", err)
		}
	}
	if len(items) > 0 {
		p.logf("flushed %d queued requests", len(items))
	}
}

// failPending answers queued requests that will never reach the worker.
func (p *Proxy) failPending() {
	p.mu.Lock()
	if p.ready {
		p.mu.Unlock()
		return
	}
	items := p.queue.drain()
	p.mu.Unlock()

	for _, item := range items {
		if item.id == nil {
			continue
		}
		p.writeHostReply(reply(item.id, &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "worker exited before ready"}},
		}))
	}
}

func (p *Proxy) writeWorkerLocked(line string) error {
	if p.worker == nil {
		return errors.New("worker stdin closed")
	}
	_, err := p.worker.Write(wire.EnsureTrailingNewline([]byte(line)))
	return err
}

func (p *Proxy) writeHostReply(resp map[string]any) {
	raw, err := json.Marshal(resp)
	if err != nil {
		p.logf("encoding reply: %v", err)
		return
	}
	if err := p.out.WriteFrame(raw); err != nil {
		p.logf("stdout write: %v", err)
	}
}

func (p *Proxy) isReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

func (p *Proxy) logf(format string, args ...any) {
	fmt.Fprintf(p.errw, "mqbridge: "+format+"\n", args...)
}

// looksLikeJSONRPC reports whether a worker stdout line belongs on the
// protocol stream. Workers print banners and progress on stdout too, so
// only object-shaped lines carrying an RPC marker pass.
func looksLikeJSONRPC(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	for _, marker := range []string{`"jsonrpc"`, `"method"`, `"result"`, `"id"`} {
		if strings.Contains(trimmed, marker) {
			return true
		}
	}
	return false
}

// workerProc is a running worker as the proxy drives it.
type workerProc struct {
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
	wait   func() int
}

func startWorker(opts Options) (*workerProc, error) {
	cmd := exec.Command(opts.Command[0], opts.Command[1:]...)
	env := os.Environ()
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env
	cmd.SysProcAttr = workerSysProcAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("opening worker stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting worker: %w", err)
	}

	return &workerProc{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		wait: func() int {
			err := cmd.Wait()
			if err == nil {
				return 0
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
				return exitErr.ExitCode()
			}
			return 1
		},
	}, nil
}
