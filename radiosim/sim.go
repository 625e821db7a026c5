// Package radiosim is an in-memory implementation of the radio
// boundary. It backs the demo mode and the test suites: mutators flip
// the simulated connection state and emit the matching events to every
// subscribed sink, the way a vendor driver would.
package radiosim

import (
	"slices"
	"sync"

	"TCAGo/global"
	"TCAGo/radio"
	"TCAGo/telecom/cause"
)

// Phone simulates one device with the standard three top-level call
// slots.
type Phone struct {
	mu               sync.Mutex
	tech             radio.Technology
	ecbm             bool
	emergencyNumbers map[string]struct{}
	ringing          *CallSlot
	foreground       *CallSlot
	background       *CallSlot
}

func NewPhone(tech radio.Technology) *Phone {
	p := &Phone{
		tech:             tech,
		emergencyNumbers: map[string]struct{}{"911": {}, "112": {}},
	}
	p.ringing = &CallSlot{phone: p}
	p.foreground = &CallSlot{phone: p}
	p.background = &CallSlot{phone: p}
	return p
}

func (p *Phone) RingingCall() radio.Call    { return p.ringing }
func (p *Phone) ForegroundCall() radio.Call { return p.foreground }
func (p *Phone) BackgroundCall() radio.Call { return p.background }

func (p *Phone) Technology() radio.Technology {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tech
}

func (p *Phone) InEmergencyCallbackMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ecbm
}

func (p *Phone) SetEmergencyCallbackMode(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ecbm = on
}

func (p *Phone) IsEmergencyNumber(number string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.emergencyNumbers[number]
	return ok
}

func (p *Phone) AddEmergencyNumber(number string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emergencyNumbers[number] = struct{}{}
}

// PlaceCall creates an outgoing connection in the foreground slot.
func (p *Phone) PlaceCall(address string) *Connection {
	global.LogInfo(global.LTRadioLayer, "Placing call to "+address)
	conn := p.newConnection(address, false, radio.StateDialing)
	p.mu.Lock()
	p.foreground.conns = append(p.foreground.conns, conn)
	conn.slot = p.foreground
	p.mu.Unlock()
	return conn
}

// ReceiveCall creates an incoming connection in the ringing slot. It
// rings as call waiting when another call is already up.
func (p *Phone) ReceiveCall(address string) *Connection {
	st := radio.StateIncoming
	if !p.foreground.IsIdle() {
		st = radio.StateWaiting
	}
	global.LogInfo(global.LTRadioLayer, "Incoming call from "+address+" ("+st.String()+")")
	conn := p.newConnection(address, true, st)
	p.mu.Lock()
	p.ringing.conns = append(p.ringing.conns, conn)
	conn.slot = p.ringing
	p.mu.Unlock()
	return conn
}

func (p *Phone) newConnection(address string, incoming bool, st radio.CallState) *Connection {
	return &Connection{
		phone:      p,
		sinks:      make(map[radio.Sink]struct{}),
		state:      st,
		tech:       p.tech,
		incoming:   incoming,
		address:    address,
		dialString: address,
		extras:     make(map[string]string),
	}
}

// AcceptCall answers the ringing call: any established foreground call
// is parked first, then the ringing connection moves to the foreground
// slot and goes active.
func (p *Phone) AcceptCall(videoState int) error {
	p.mu.Lock()
	ringing := p.ringing.conns[:0:0]
	for _, c := range p.ringing.conns {
		if c.State().IsRinging() {
			ringing = append(ringing, c)
		}
	}
	p.ringing.conns = ringing
	if len(p.ringing.conns) == 0 {
		p.mu.Unlock()
		return global.NewError(global.ECRadioLayer, "no ringing call to accept")
	}
	parked := p.foreground.conns
	p.background.conns = append(p.background.conns, parked...)
	for _, c := range parked {
		c.slot = p.background
	}
	conn := p.ringing.conns[0]
	p.ringing.conns = p.ringing.conns[1:]
	p.foreground.conns = []*Connection{conn}
	conn.slot = p.foreground
	p.mu.Unlock()
	for _, c := range parked {
		c.SetState(radio.StateHolding)
	}
	conn.SetVideoState(videoState)
	conn.SetState(radio.StateActive)
	return nil
}

// SwitchHoldingAndActive swaps the foreground and background calls.
// Legs already torn down are dropped from their slot instead of being
// carried across the swap.
func (p *Phone) SwitchHoldingAndActive() error {
	p.mu.Lock()
	alive := func(conns []*Connection) []*Connection {
		out := make([]*Connection, 0, len(conns))
		for _, c := range conns {
			if c.State().IsAlive() {
				out = append(out, c)
			}
		}
		return out
	}
	fg, bg := alive(p.foreground.conns), alive(p.background.conns)
	p.foreground.conns, p.background.conns = bg, fg
	for _, c := range bg {
		c.slot = p.foreground
	}
	for _, c := range fg {
		c.slot = p.background
	}
	p.mu.Unlock()
	for _, c := range fg {
		c.SetState(radio.StateHolding)
	}
	for _, c := range bg {
		c.SetState(radio.StateActive)
	}
	return nil
}

// Conference merges the background call into the foreground call and
// marks the surviving earliest connection as the multiparty host.
func (p *Phone) Conference() error {
	p.mu.Lock()
	if len(p.foreground.conns) == 0 || len(p.background.conns) == 0 {
		p.mu.Unlock()
		return global.NewError(global.ECRadioLayer, "conference requires a foreground and a background call")
	}
	absorbed := p.background.conns
	p.background.conns = nil
	p.foreground.conns = append(p.foreground.conns, absorbed...)
	for _, c := range absorbed {
		c.slot = p.foreground
	}
	host := p.foreground.conns[0]
	p.mu.Unlock()
	for _, c := range absorbed {
		c.SetState(radio.StateActive)
	}
	host.SetMultiparty(true)
	return nil
}

func (p *Phone) AddParticipant(participant string) error {
	p.mu.Lock()
	if len(p.foreground.conns) == 0 {
		p.mu.Unlock()
		return global.NewError(global.ECRadioLayer, "no foreground call to add a participant to")
	}
	host := p.foreground.conns[0]
	p.mu.Unlock()
	host.AddParticipant(radio.Participant{Address: participant, State: radio.StateDialing})
	return nil
}

// =========================================================================================================

// CallSlot is one top-level call: its state is the state of its
// earliest connection.
type CallSlot struct {
	phone *Phone
	conns []*Connection
}

func (c *CallSlot) State() radio.CallState {
	c.phone.mu.Lock()
	defer c.phone.mu.Unlock()
	if len(c.conns) == 0 {
		return radio.StateIdle
	}
	return c.conns[0].State()
}

func (c *CallSlot) IsIdle() bool {
	return !c.State().IsAlive()
}

func (c *CallSlot) EarliestConnection() radio.Connection {
	c.phone.mu.Lock()
	defer c.phone.mu.Unlock()
	if len(c.conns) == 0 {
		return nil
	}
	return c.conns[0]
}

func (c *CallSlot) Phone() radio.Phone { return c.phone }

func (c *CallSlot) Hangup() error {
	c.phone.mu.Lock()
	conns := slices.Clone(c.conns)
	c.phone.mu.Unlock()
	for _, conn := range conns {
		code := cause.Local
		if conn.State().IsRinging() {
			code = cause.IncomingRejected
		}
		conn.Disconnect(code, "")
	}
	return nil
}

// =========================================================================================================

// Provider is a trivial video-provider handle.
type Provider struct {
	Name string
}

func (p *Provider) ID() string { return p.Name }

// Connection is one simulated call leg. Mutators update the leg and
// emit the corresponding event to every subscribed sink.
type Connection struct {
	phone *Phone
	slot  *CallSlot

	mu                sync.Mutex
	sinks             map[radio.Sink]struct{}
	state             radio.CallState
	stateBefore       radio.CallState
	tech              radio.Technology
	incoming          bool
	multiparty        bool
	wifi              bool
	address           string
	dialString        string
	displayName       string
	numberPres        radio.Presentation
	namePres          radio.Presentation
	caps              radio.CapabilityBits
	videoState        int
	provider          radio.VideoProvider
	quality           radio.AudioQuality
	extras            map[string]string
	discCause         cause.Code
	vendorCause       string
	participants      []radio.Participant
	postDialRemaining string
}

func (c *Connection) State() radio.CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) StateBeforeHandover() radio.CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateBefore
}

func (c *Connection) Technology() radio.Technology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tech
}

func (c *Connection) IsIncoming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.incoming
}

func (c *Connection) IsMultiparty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.multiparty
}

func (c *Connection) IsWifi() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wifi
}

func (c *Connection) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address
}

func (c *Connection) NumberPresentation() radio.Presentation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numberPres
}

func (c *Connection) DisplayName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayName
}

func (c *Connection) DisplayNamePresentation() radio.Presentation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.namePres
}

func (c *Connection) OriginalDialString() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialString
}

func (c *Connection) Capabilities() radio.CapabilityBits {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

func (c *Connection) VideoState() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.videoState
}

func (c *Connection) VideoProvider() radio.VideoProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider
}

func (c *Connection) AudioQuality() radio.AudioQuality {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quality
}

func (c *Connection) Extras() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.extras))
	for k, v := range c.extras {
		out[k] = v
	}
	return out
}

func (c *Connection) DisconnectCause() cause.Code {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discCause
}

func (c *Connection) VendorDisconnectCause() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vendorCause
}

func (c *Connection) ConferenceParticipants() []radio.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.participants)
}

func (c *Connection) RemainingPostDialString() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.postDialRemaining
}

func (c *Connection) Call() radio.Call {
	c.phone.mu.Lock()
	defer c.phone.mu.Unlock()
	if c.slot == nil {
		return nil
	}
	return c.slot
}

func (c *Connection) Hangup() error {
	c.Disconnect(cause.Local, "")
	return nil
}

func (c *Connection) Separate() error {
	c.SetMultiparty(false)
	return nil
}

func (c *Connection) ProceedAfterWaitChar() error {
	c.mu.Lock()
	c.postDialRemaining = ""
	c.mu.Unlock()
	return nil
}

func (c *Connection) CancelPostDial() error {
	c.mu.Lock()
	c.postDialRemaining = ""
	c.mu.Unlock()
	return nil
}

func (c *Connection) DisconnectParticipant(endpoint string) error {
	c.mu.Lock()
	c.participants = slices.DeleteFunc(slices.Clone(c.participants), func(p radio.Participant) bool {
		return p.Address == endpoint
	})
	parts := slices.Clone(c.participants)
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvParticipantsChanged, Participants: parts})
	return nil
}

func (c *Connection) Subscribe(s radio.Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks[s] = struct{}{}
}

func (c *Connection) Unsubscribe(s radio.Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sinks, s)
}

// =========================================================================================================
// Mutators. Each flips state under the lock, then emits outside it.

func (c *Connection) emit(ev radio.Event) {
	c.mu.Lock()
	sinks := make([]radio.Sink, 0, len(c.sinks))
	for s := range c.sinks {
		sinks = append(sinks, s)
	}
	c.mu.Unlock()
	for _, s := range sinks {
		s.Deliver(ev)
	}
}

func (c *Connection) SetState(st radio.CallState) {
	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvStateChanged})
}

// SetStateQuiet changes the state without a report, simulating a state
// change whose event was lost or superseded in the stack.
func (c *Connection) SetStateQuiet(st radio.CallState) {
	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
}

// Disconnect terminates the leg with the given cause.
func (c *Connection) Disconnect(code cause.Code, vendor string) {
	c.mu.Lock()
	c.state = radio.StateDisconnected
	c.discCause = code
	c.vendorCause = vendor
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvDisconnect})
}

// StartHandover records the pre-handover state and announces the
// replacement connection.
func (c *Connection) StartHandover(replacement radio.Connection) {
	c.mu.Lock()
	c.stateBefore = c.state
	address := c.address
	c.mu.Unlock()
	global.LogInfo(global.LTRadioLayer, "Starting handover for "+address)
	c.emit(radio.Event{Kind: radio.EvHandoverStateChanged, Handover: replacement})
}

func (c *Connection) SetMultiparty(multiparty bool) {
	c.mu.Lock()
	c.multiparty = multiparty
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvMultipartyChanged, Multiparty: multiparty})
}

func (c *Connection) FailMerge() {
	c.emit(radio.Event{Kind: radio.EvMergeFailed})
}

func (c *Connection) NotifyRingback(on bool) {
	c.emit(radio.Event{Kind: radio.EvRingbackChanged, Ringback: on})
}

func (c *Connection) NotifySuppService(n *radio.SuppServiceNotification) {
	c.emit(radio.Event{Kind: radio.EvSuppServiceNotification, Notification: n})
}

func (c *Connection) SetExtras(extras map[string]string) {
	out := make(map[string]string, len(extras))
	for k, v := range extras {
		out[k] = v
	}
	c.mu.Lock()
	c.extras = out
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvExtrasChanged, Extras: out})
}

func (c *Connection) SetCapabilities(caps radio.CapabilityBits) {
	c.mu.Lock()
	c.caps = caps
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvCapabilitiesChanged, Capabilities: caps})
}

func (c *Connection) SetVideoState(videoState int) {
	c.mu.Lock()
	c.videoState = videoState
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvVideoStateChanged, VideoState: videoState})
}

func (c *Connection) SetVideoProvider(provider radio.VideoProvider) {
	c.mu.Lock()
	c.provider = provider
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvVideoProviderChanged, Provider: provider})
}

func (c *Connection) SetAudioQuality(quality radio.AudioQuality) {
	c.mu.Lock()
	c.quality = quality
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvAudioQualityChanged, Quality: quality})
}

// SetWifi is the one synchronous notification of the radio boundary.
func (c *Connection) SetWifi(wifi bool) {
	c.mu.Lock()
	c.wifi = wifi
	sinks := make([]radio.Sink, 0, len(c.sinks))
	for s := range c.sinks {
		sinks = append(sinks, s)
	}
	c.mu.Unlock()
	for _, s := range sinks {
		s.WifiChanged(wifi)
	}
}

func (c *Connection) SetVoicePrivacy(on bool) {
	kind := radio.EvVoicePrivacyOff
	if on {
		kind = radio.EvVoicePrivacyOn
	}
	c.emit(radio.Event{Kind: kind})
}

func (c *Connection) AddParticipant(p radio.Participant) {
	c.mu.Lock()
	c.participants = append(c.participants, p)
	parts := slices.Clone(c.participants)
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvParticipantsChanged, Participants: parts})
}

func (c *Connection) SetAddress(address string, pres radio.Presentation) {
	c.mu.Lock()
	c.address = address
	c.numberPres = pres
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvStateChanged})
}

func (c *Connection) SetDisplayName(name string, pres radio.Presentation) {
	c.mu.Lock()
	c.displayName = name
	c.namePres = pres
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvStateChanged})
}

func (c *Connection) PostDialWait(remaining string) {
	c.mu.Lock()
	c.postDialRemaining = remaining
	c.mu.Unlock()
	c.emit(radio.Event{Kind: radio.EvPostDialWait})
}

func (c *Connection) PostDialChar(char byte) {
	c.emit(radio.Event{Kind: radio.EvPostDialChar, Char: char})
}
