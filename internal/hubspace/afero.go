package hubspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"hubspace_bridge/internal/logger"
)

// Endpoints of the Afero cloud behind Hubspace.
const (
	DefaultBaseURL = "https://semantics2.afero.net/v1"
	DefaultAuthURL = "https://accounts.hubspaceconnect.com/auth/realms/thd/protocol/openid-connect/token"

	userMeURL = "https://api2.afero.net/v1/users/me"

	authClientID = "hubspace_android"

	httpTimeout  = 15 * time.Second
	tokenMargin  = 60 * time.Second // refresh this long before expiry
	tokenTTLSane = time.Hour        // fallback when expires_in is absent
)

// restTransport is the direct-protocol path: authenticated requests
// against the metadevices REST surface, parameterized by account and
// device id.
type restTransport struct {
	base string
	http *http.Client
	sess Session
}

// NewRESTTransport builds the raw transport over an existing session,
// which supplies the bearer token and account id.
func NewRESTTransport(s Session, cfg Config) Transport {
	return &restTransport{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: httpTimeout},
		sess: s,
	}
}

// statePayload is the body of a direct state mutation.
type statePayload struct {
	MetadeviceID string     `json:"metadeviceId"`
	Values       []RawValue `json:"values"`
}

func (t *restTransport) authorize(ctx context.Context, req *http.Request) error {
	token, err := t.sess.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// SetState PUTs a single functionClass mutation to the device's state
// endpoint. Success is a 200/202/204-class response.
func (t *restTransport) SetState(ctx context.Context, deviceID, functionClass string, value any) (bool, error) {
	u := fmt.Sprintf("%s/accounts/%s/metadevices/%s/state", t.base, t.sess.AccountID(), deviceID)
	payload := statePayload{
		MetadeviceID: deviceID,
		Values: []RawValue{{
			FunctionClass:  functionClass,
			Value:          value,
			LastUpdateTime: time.Now().UnixMilli(),
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, strings.NewReader(string(body)))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if err := t.authorize(ctx, req); err != nil {
		return false, err
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return false, err
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return true, nil
	default:
		return false, nil
	}
}

// GetState fetches one device's state vector with the state expansion.
func (t *restTransport) GetState(ctx context.Context, deviceID string) (*RawDevice, error) {
	u := fmt.Sprintf("%s/accounts/%s/metadevices/%s?expansions=state", t.base, t.sess.AccountID(), deviceID)
	var raw RawDevice
	if err := t.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// ListDevices fetches the account's metadevice listing with states.
func (t *restTransport) ListDevices(ctx context.Context) ([]RawDevice, error) {
	u := fmt.Sprintf("%s/accounts/%s/metadevices?expansions=state", t.base, t.sess.AccountID())
	var raws []RawDevice
	if err := t.getJSON(ctx, u, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

func (t *restTransport) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if err := t.authorize(ctx, req); err != nil {
		return err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// aferoSession is the default Session: a minimal bearer-token exchange
// plus in-memory per-class controllers built from the account's device
// listing. The full vendor login/pairing flow belongs to the vendor SDK
// and is not reimplemented; deployments with richer needs substitute their
// own Session through the bridge's session factory.
type aferoSession struct {
	cfg  Config
	log  *logger.Logger
	http *http.Client

	mu        sync.Mutex
	token     string
	tokenExp  time.Time
	accountID string

	rest Transport

	lights   *memController
	fans     *memController
	switches *memController
}

// NewAferoSession builds the default session from bridge configuration.
func NewAferoSession(cfg Config, log *logger.Logger) Session {
	s := &aferoSession{
		cfg:  cfg,
		log:  log,
		http: &http.Client{Timeout: httpTimeout},
	}
	s.lights = newMemController(s)
	s.fans = newMemController(s)
	s.switches = newMemController(s)
	s.rest = NewRESTTransport(s, cfg)
	return s
}

// Initialize authenticates, resolves the account id and populates the
// per-class controllers from the metadevice listing.
func (s *aferoSession) Initialize(ctx context.Context) error {
	if _, err := s.Token(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if err := s.fetchAccountID(ctx); err != nil {
		return fmt.Errorf("resolve account: %w", err)
	}

	raws, err := s.rest.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	for _, raw := range raws {
		h := handleFromRaw(raw)
		switch raw.Description.Device.DeviceClass {
		case string(deviceClassLight):
			s.lights.put(h)
		case string(deviceClassFan):
			s.fans.put(h)
		case string(deviceClassSwitch):
			s.switches.put(h)
		default:
			// Unclassified entries that can be powered are treated as
			// lights, same as the direct-discovery fallback.
			if raw.HasFunction(FunctionPower) {
				s.lights.put(h)
			}
		}
	}
	return nil
}

const (
	deviceClassLight  = "light"
	deviceClassFan    = "fan"
	deviceClassSwitch = "switch"
)

func (s *aferoSession) Lights() Controller   { return s.lights }
func (s *aferoSession) Fans() Controller     { return s.fans }
func (s *aferoSession) Switches() Controller { return s.switches }

// Token returns a valid bearer token, re-authenticating when the cached
// one is near expiry.
func (s *aferoSession) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && time.Now().Before(s.tokenExp.Add(-tokenMargin)) {
		return s.token, nil
	}

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {authClientID},
		"username":   {s.cfg.Email},
		"password":   {s.cfg.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", errors.New("token endpoint returned no access_token")
	}
	s.token = tr.AccessToken
	if tr.ExpiresIn > 0 {
		s.tokenExp = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	} else {
		s.tokenExp = time.Now().Add(tokenTTLSane)
	}
	return s.token, nil
}

func (s *aferoSession) AccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}

// fetchAccountID resolves the account behind the credentials.
func (s *aferoSession) fetchAccountID(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userMeURL, nil)
	if err != nil {
		return err
	}
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("users/me returned %d", resp.StatusCode)
	}

	var me struct {
		AccountAccess []struct {
			Account struct {
				AccountID string `json:"accountId"`
			} `json:"account"`
		} `json:"accountAccess"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return err
	}
	if len(me.AccountAccess) == 0 || me.AccountAccess[0].Account.AccountID == "" {
		return errors.New("no account access on user")
	}
	s.mu.Lock()
	s.accountID = me.AccountAccess[0].Account.AccountID
	s.mu.Unlock()
	return nil
}

// Close releases client resources. The cloud session itself is stateless
// on our side, so there is nothing to tear down remotely.
func (s *aferoSession) Close(ctx context.Context) error {
	s.http.CloseIdleConnections()
	return nil
}

// memController is the SDK-level controller for one device class, backed
// by the state snapshots taken at initialization. Mutations go through the
// REST transport and update the in-memory handle on success.
type memController struct {
	sess    *aferoSession
	mu      sync.RWMutex
	handles map[string]DeviceHandle
}

func newMemController(sess *aferoSession) *memController {
	return &memController{sess: sess, handles: make(map[string]DeviceHandle)}
}

func (c *memController) put(h DeviceHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles[h.ID] = h
}

func (c *memController) Devices() []DeviceHandle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DeviceHandle, 0, len(c.handles))
	for _, h := range c.handles {
		out = append(out, h)
	}
	return out
}

func (c *memController) Get(id string) (DeviceHandle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handles[id]
	return h, ok
}

func (c *memController) TurnOn(ctx context.Context, id string) error {
	return c.setPower(ctx, id, true)
}

func (c *memController) TurnOff(ctx context.Context, id string) error {
	return c.setPower(ctx, id, false)
}

func (c *memController) setPower(ctx context.Context, id string, on bool) error {
	value := "off"
	if on {
		value = "on"
	}
	ok, err := c.sess.rest.SetState(ctx, id, FunctionPower, value)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("power mutation rejected for %s", id)
	}

	c.mu.Lock()
	if h, held := c.handles[id]; held {
		v := on
		h.On = &v
		c.handles[id] = h
	}
	c.mu.Unlock()
	return nil
}

// handleFromRaw builds an in-memory handle from a raw metadevice entry.
func handleFromRaw(raw RawDevice) DeviceHandle {
	st := statusFromValues(raw.FunctionValues())
	name := raw.FriendlyName
	if name == "" {
		name = "unnamed"
	}
	on := st.On
	brightness := st.Brightness
	return DeviceHandle{
		ID:         raw.ID,
		Name:       name,
		On:         &on,
		Brightness: &brightness,
		Color:      st.Color,
	}
}
