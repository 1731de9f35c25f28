// Package application binds the engine's lifecycle operations to the command
// identifiers the consoles send over the wire.
package application

import (
	"context"
	"encoding/json"
	"time"

	"mesaYaCore/internal/modules/realtime/infrastructure"
	"mesaYaCore/internal/modules/restaurant/application/usecase"
	"mesaYaCore/internal/modules/restaurant/domain"
	"mesaYaCore/internal/shared/auth"
)

const (
	CmdCreateReservation     = "CREATE_RESERVATION"
	CmdCancelReservation     = "CANCEL_RESERVATION"
	CmdCheckInReservation    = "CHECKIN_RESERVATION"
	CmdFinishReservation     = "FINISH_RESERVATION"
	CmdJoinWaitingList       = "JOIN_WAITING_LIST"
	CmdCancelWaiting         = "CANCEL_WAITING"
	CmdConfirmWaitingArrival = "CONFIRM_WAITING_ARRIVAL"
	CmdGetTables             = "GET_TABLES"
	CmdSaveTable             = "SAVE_TABLE"
	CmdDeleteTable           = "DELETE_TABLE"
	CmdGetOpeningHours       = "GET_OPENING_HOURS"
	CmdUpdateOpeningHours    = "UPDATE_OPENING_HOURS"
	CmdGetAvailability       = "GET_AVAILABILITY"
	CmdListReservations      = "LIST_RESERVATIONS"
	CmdListWaiting           = "LIST_WAITING"
	CmdPing                  = "PING"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type createReservationPayload struct {
	UserID string `json:"userId,omitempty"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Guests int    `json:"guests"`
}

type codePayload struct {
	Code string `json:"code"`
}

type joinWaitingPayload struct {
	UserID string `json:"userId,omitempty"`
	Guests int    `json:"guests"`
}

type saveTablePayload struct {
	Number    int  `json:"number"`
	Seats     int  `json:"seats"`
	Available bool `json:"available"`
}

type deleteTablePayload struct {
	Number int `json:"number"`
}

type openingHoursPayload struct {
	Day   string `json:"day"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

type availabilityPayload struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Guests int    `json:"guests"`
}

// BindEngine registers every engine command on the router. Called once at
// startup.
func BindEngine(router *infrastructure.Router, engine *usecase.Engine) {
	router.Register(CmdCreateReservation, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p createReservationPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		at, err := parseDateTime(p.Date, p.Time)
		if err != nil {
			return nil, err
		}
		return engine.CreateReservation(ctx, onBehalfOf(actor, p.UserID), at, p.Guests)
	})

	router.Register(CmdCancelReservation, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p codePayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return engine.CancelReservation(ctx, actor, p.Code)
	})

	router.Register(CmdCheckInReservation, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p codePayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return engine.CheckIn(ctx, p.Code)
	})

	router.Register(CmdFinishReservation, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p codePayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return engine.FinishReservation(ctx, actor, p.Code)
	})

	router.Register(CmdJoinWaitingList, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p joinWaitingPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return engine.JoinWaitingList(ctx, onBehalfOf(actor, p.UserID), p.Guests)
	})

	router.Register(CmdCancelWaiting, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p codePayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return engine.CancelWaiting(ctx, actor, p.Code)
	})

	router.Register(CmdConfirmWaitingArrival, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p codePayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return engine.ConfirmArrival(ctx, p.Code)
	})

	router.Register(CmdGetTables, func(ctx context.Context, actor auth.Identity, _ json.RawMessage) (any, error) {
		return engine.Tables(), nil
	})

	router.Register(CmdSaveTable, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p saveTablePayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return engine.SaveTable(ctx, actor, domain.Table{Number: p.Number, Seats: p.Seats, IsAvailable: p.Available})
	})

	router.Register(CmdDeleteTable, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p deleteTablePayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		if err := engine.DeleteTable(ctx, actor, p.Number); err != nil {
			if domain.IsKind(err, domain.KindPersistence) {
				return map[string]any{"deleted": p.Number}, err
			}
			return nil, err
		}
		return map[string]any{"deleted": p.Number}, nil
	})

	router.Register(CmdGetOpeningHours, func(ctx context.Context, actor auth.Identity, _ json.RawMessage) (any, error) {
		return engine.OpeningHoursView(), nil
	})

	router.Register(CmdUpdateOpeningHours, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p openingHoursPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		return engine.UpdateOpeningHours(ctx, actor, p.Day, p.Open, p.Close)
	})

	router.Register(CmdGetAvailability, func(ctx context.Context, actor auth.Identity, raw json.RawMessage) (any, error) {
		var p availabilityPayload
		if err := decode(raw, &p); err != nil {
			return nil, err
		}
		at, err := parseDateTime(p.Date, p.Time)
		if err != nil {
			return nil, err
		}
		return engine.FreeSlotsFor(at, p.Guests)
	})

	router.Register(CmdListReservations, func(ctx context.Context, actor auth.Identity, _ json.RawMessage) (any, error) {
		return engine.ReservationList(actor)
	})

	router.Register(CmdListWaiting, func(ctx context.Context, actor auth.Identity, _ json.RawMessage) (any, error) {
		return engine.WaitingList(actor)
	})

	router.Register(CmdPing, func(ctx context.Context, actor auth.Identity, _ json.RawMessage) (any, error) {
		return map[string]string{"pong": time.Now().UTC().Format(time.RFC3339)}, nil
	})
}

func decode(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return domain.Errf(domain.KindValidation, "missing command payload")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return domain.Errf(domain.KindValidation, "malformed command payload: %v", err)
	}
	return nil
}

func parseDateTime(date, clock string) (time.Time, error) {
	at, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, domain.Errf(domain.KindValidation, "malformed date/time %q %q, want %s and %s", date, clock, dateLayout, timeLayout)
	}
	return at, nil
}

// onBehalfOf lets staff submit for a named guest while guests always act as
// themselves.
func onBehalfOf(actor auth.Identity, userID string) auth.Identity {
	if userID == "" || userID == actor.UserID || !actor.IsStaff() {
		return actor
	}
	return auth.Identity{UserID: userID, Role: auth.RoleGuest}
}
