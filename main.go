package main

import (
	"fmt"
	"os"
	"time"

	"TCAGo/calllog"
	"TCAGo/config"
	"TCAGo/global"
	"TCAGo/prometheus"
	"TCAGo/radio"
	"TCAGo/radiosim"
	"TCAGo/telecom"
	"TCAGo/telecom/cause"
	"TCAGo/telecom/state"
	"TCAGo/webserver"
)

func main() {
	greeting()

	cfg, err := config.Load()
	if err != nil {
		global.LogError(global.LTConfiguration, "Unable to load configuration: "+err.Error())
		os.Exit(1)
	}

	global.Prometrics = prometheus.NewMetrics(global.AdapterNameVersion)

	if !cfg.CallLogOff {
		calllog.Start(cfg.CallLogDir)
	}

	sessions := telecom.NewRegistry()

	webserver.StartWS(cfg, sessions)

	if cfg.SimDemo {
		global.WtGrp.Add(1)
		go runSimDemo(sessions, cfg.MailboxDepth)
	}

	global.WtGrp.Wait()
}

func greeting() {
	global.LogInfo(global.LTSystem, fmt.Sprintf("Welcome to %s - Product of %s 2026", global.AdapterNameVersion, global.EntityName))
}

// runSimDemo drives one scripted incoming call through the simulated
// radio layer: ring, answer, hold, resume, remote hangup.
func runSimDemo(sessions *telecom.Registry, mailboxDepth int) {
	defer global.WtGrp.Done()

	phone := radiosim.NewPhone(radio.TechPremium)
	conn := phone.ReceiveCall("+14085550123")

	s := telecom.NewSession(sessions, demoNotifier{}, conn, mailboxDepth)

	step := func() { time.Sleep(250 * time.Millisecond) }

	step()
	s.Answer(0)
	step()
	s.Hold()
	step()
	s.Unhold()
	step()
	conn.Disconnect(cause.Remote, "demo: remote hangup")
	step()

	global.LogInfo(global.LTSystem, "Simulated demo call finished")
}

type demoNotifier struct {
	telecom.NopNotifier
}

func (demoNotifier) StateChanged(id string, oldState, newState state.SessionState) {
	global.LogInfo(global.LTSession, fmt.Sprintf("Demo session %s: %s -> %s", id, oldState.String(), newState.String()))
}

func (demoNotifier) Disconnected(id string, c cause.Cause) {
	global.LogInfo(global.LTSession, fmt.Sprintf("Demo session %s ended: %s", id, c.String()))
}
