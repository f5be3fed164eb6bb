package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jsmorph/actorcore/actor"
)

// Client is the shared transport a RemoteAddress issues requests
// through; one Client's connection pool is typically reused across
// every RemoteAddress a process holds.
type Client struct {
	http *http.Client
}

// NewClient returns a Client with a sane default timeout. Per-Call
// timeouts are additionally enforced with a request context.
func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: 30 * time.Second}}
}

// RemoteAddress is the actor.Address implementation for an actor living
// behind someone else's HTTP bridge (C5, C9). Its ActorID is the
// actor's full URL, which doubles as the wire identity exchanged with
// peers.
type RemoteAddress struct {
	url    string
	client *Client
}

// NewRemoteAddress wraps url (the actor's bridge-exposed resource) as
// an Address. A nil client gets a fresh default one.
func NewRemoteAddress(url string, client *Client) *RemoteAddress {
	if client == nil {
		client = NewClient()
	}
	return &RemoteAddress{url: strings.TrimRight(url, "/"), client: client}
}

func (r *RemoteAddress) ActorID() string { return r.url }
func (r *RemoteAddress) IsRemote() bool  { return true }

// Cast POSTs message as a fire-and-forget envelope (C4/C9).
func (r *RemoteAddress) Cast(message interface{}) error {
	bs, err := MarshalEgress("", message)
	if err != nil {
		return err
	}
	resp, err := r.client.http.Post(r.url, "application/json", bytes.NewReader(bs))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return &actor.DeadActor{ID: r.url}
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("cast to %s failed: %s", r.url, resp.Status)
	}
	return nil
}

// Call POSTs a remotecall envelope and translates the bridge's response
// status code back into the same success/error shapes a local Call
// would produce (C6/C9): 202 success, 404 RemoteAttributeError, 406
// RemoteException, 408 Timeout.
func (r *RemoteAddress) Call(caller *actor.Actor, method string, message interface{}, timeout time.Duration) (interface{}, error) {
	payload := map[string]interface{}{
		"remotecall": uuid.NewString(),
		"method":     method,
		"message":    message,
	}
	if timeout >= 0 {
		payload["timeout"] = timeout.Seconds()
	}
	bs, err := MarshalEgress("", payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, r.url, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout+5*time.Second)
		defer cancel()
	}
	resp, err := r.client.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	decoded, _ := UnmarshalIngress(body, nil, "", r.client)
	m, _ := decoded.(map[string]interface{})

	switch resp.StatusCode {
	case http.StatusAccepted:
		return m["message"], nil
	case http.StatusNotFound:
		return nil, &actor.RemoteAttributeError{Method: method}
	case http.StatusNotAcceptable:
		return nil, &actor.RemoteException{Payload: m["exception"]}
	case http.StatusRequestTimeout:
		return nil, &actor.Timeout{}
	default:
		return nil, fmt.Errorf("unexpected response from %s: %s", r.url, resp.Status)
	}
}

// Link is a best-effort announcement: the bridge records caller as a
// link but, unlike a local link, can only ever notify it by casting a
// termination message to caller's own address, since an HTTP resource
// cannot be "woken up" the way a blocked goroutine can.
func (r *RemoteAddress) Link(caller *actor.Actor, trapExit bool) error {
	bs, err := MarshalEgress("", map[string]interface{}{
		"link":      caller.Address(),
		"trap_exit": trapExit,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, r.url+"?link", bytes.NewReader(bs))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return &actor.DeadActor{ID: r.url}
	}
	return nil
}

// Wait is intentionally unsupported for a remote address (open question
// in the runtime specification): a waiter would have to long-poll or a
// bridge would have to hold the HTTP connection open indefinitely, and
// neither is implemented here.
func (r *RemoteAddress) Wait() (interface{}, error) {
	return nil, &actor.RemoteWaitUnsupported{}
}

// Kill issues an HTTP DELETE against the actor's resource.
func (r *RemoteAddress) Kill() error {
	req, err := http.NewRequest(http.MethodDelete, r.url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return &actor.DeadActor{ID: r.url}
	}
	return nil
}
