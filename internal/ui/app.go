package ui

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/robgonnella/plcscout/internal/core"
	"github.com/robgonnella/plcscout/internal/event"
	"github.com/robgonnella/plcscout/internal/exception"
	"github.com/robgonnella/plcscout/internal/logger"
	"github.com/robgonnella/plcscout/internal/ui/key"
)

type app struct {
	ctx             context.Context
	cancel          context.CancelFunc
	appCore         *core.Core
	tvApp           *tview.Application
	view            *view
	eventUpdateChan chan event.Event
	eventListenerId int
	logger          logger.Logger
}

func newApp(appCore *core.Core) *app {
	ctx, cancel := context.WithCancel(context.Background())

	eventUpdateChan := make(chan event.Event, 100)

	eventListenerId := appCore.RegisterEventListener(event.AllEvents, eventUpdateChan)

	conf := appCore.Conf()

	return &app{
		ctx:             ctx,
		cancel:          cancel,
		appCore:         appCore,
		tvApp:           tview.NewApplication(),
		view:            newView(conf.NetworkRanges, conf.Protocols),
		eventUpdateChan: eventUpdateChan,
		eventListenerId: eventListenerId,
		logger:          logger.Named("ui"),
	}
}

func (a *app) bindKeys() {
	a.tvApp.SetInputCapture(func(evt *tcell.EventKey) *tcell.EventKey {
		switch evt.Key() {
		case key.KeyCtrlC:
			a.stop()
			return evt
		case key.KeyCtrlE:
			a.appCore.EmergencyStop()
			a.view.header.SetStatus("emergency stop engaged", true)
			return nil
		case key.KeyCtrlR:
			a.appCore.ResetEmergencyStop()
			a.backgroundScan()
			return nil
		case key.KeyTab:
			a.tvApp.SetFocus(a.view.nextFocus())
			return nil
		}

		return evt
	})
}

func (a *app) processBackgroundEventUpdates() {
	go func() {
		for {
			select {
			case <-a.ctx.Done():
				return
			case evt := <-a.eventUpdateChan:
				a.tvApp.QueueUpdateDraw(func() {
					a.view.handleEvent(evt)
				})
			}
		}
	}()
}

func (a *app) backgroundScan() {
	go func() {
		_, err := a.appCore.Scan(a.ctx)

		if err == nil {
			return
		}

		a.logger.Error().Err(err).Msg("scan failed")

		status := err.Error()

		if errors.Is(err, exception.ErrScanActive) {
			status = "a scan is already running"
		}

		a.tvApp.QueueUpdateDraw(func() {
			a.view.header.SetStatus(status, true)
		})
	}()
}

func (a *app) stop() {
	a.appCore.RemoveEventListener(a.eventListenerId)
	a.cancel()
	a.appCore.Stop()
	a.tvApp.Stop()
}

func (a *app) run() error {
	a.bindKeys()
	a.processBackgroundEventUpdates()
	a.backgroundScan()
	return a.tvApp.SetRoot(a.view.root, true).EnableMouse(true).Run()
}
