package scheduler

import (
	"strconv"

	"github.com/vatpac-net/ingestd/internal/dbmodels"
	"github.com/vatpac-net/ingestd/internal/feed"
	"github.com/vatpac-net/ingestd/internal/store"
)

// toFlightRow projects a Coalescer flight entry onto the persisted Flight
// row, carrying over the lifecycle fields the Lifecycle Engine owns.
func toFlightRow(f *store.FlightEntry) dbmodels.Flight {
	o := f.Obs
	row := dbmodels.Flight{
		Callsign:            o.Callsign,
		PilotID:             o.PilotID,
		PilotName:           o.PilotName,
		AircraftType:        o.AircraftType,
		Latitude:            o.Latitude,
		Longitude:           o.Longitude,
		Altitude:            o.Altitude,
		Heading:             o.Heading,
		Groundspeed:         o.Groundspeed,
		Transponder:         o.Transponder,
		QNH:                 o.QNH,
		Departure:           o.Departure,
		Arrival:             o.Arrival,
		Alternate:           o.Alternate,
		Route:               o.Route,
		PlannedAltitude:     o.PlannedAltitude,
		FlightRules:         o.FlightRules,
		CruiseTAS:           o.CruiseTAS,
		DepTime:             o.DepTime,
		EnrouteTime:         o.EnrouteTime,
		FuelTime:            o.FuelTime,
		Remarks:             o.Remarks,
		RevisionID:          o.RevisionID,
		AssignedTransponder: o.AssignedTransponder,
		LogonTime:           o.LogonTime,
		LastUpdated:         o.LastUpdated,
		LastUpdatedLocal:    f.LastSeen,
		FirstSeen:           f.FirstSeen,
		Status:              dbmodels.FlightStatus(f.Status),
	}
	if f.Status == string(dbmodels.StatusLanded) || f.Status == string(dbmodels.StatusCompleted) {
		row.LandedArrival = o.Arrival
	}
	if !f.StaleSince.IsZero() {
		t := f.StaleSince
		row.StaleSince = &t
	}
	if !f.LandedAt.IsZero() {
		t := f.LandedAt
		row.LandedAt = &t
	}
	if !f.DisconnectedAt.IsZero() {
		t := f.DisconnectedAt
		row.DisconnectedAt = &t
	}
	if f.DisconnectMethod != "" {
		m := dbmodels.DisconnectMethod(f.DisconnectMethod)
		row.DisconnectMethod = &m
	}
	return row
}

// toControllerRow projects a Coalescer controller entry onto the
// persisted Controller row.
func toControllerRow(c *store.ControllerEntry) dbmodels.Controller {
	o := c.Obs
	return dbmodels.Controller{
		Callsign:      o.Callsign,
		ControllerID:  o.ControllerID,
		Name:          o.Name,
		Rating:        o.Rating,
		Facility:      o.Facility,
		VisualRange:   o.VisualRange,
		TextATIS:      o.TextATIS,
		Frequency:     o.Frequency,
		Server:        o.Server,
		LogonTime:     o.LogonTime,
		LastUpdated:   o.LastUpdated,
		FirstSeen:     c.FirstSeen,
		LastSeenLocal: c.LastSeen,
	}
}

// toFlightTransceiverRow projects one flight's radio sample onto the
// append-only transceivers table (spec §3 invariant 2: entity_type = flight
// implies entity_id is null).
func toFlightTransceiverRow(callsign string, t feed.TransceiverObservation) dbmodels.TransceiverSample {
	return dbmodels.TransceiverSample{
		Callsign:      callsign,
		TransceiverID: t.TransceiverID,
		Timestamp:     t.Timestamp,
		Frequency:     t.Frequency,
		Latitude:      t.Latitude,
		Longitude:     t.Longitude,
		HeightMSL:     t.HeightMSL,
		HeightAGL:     t.HeightAGL,
		EntityType:    dbmodels.EntityFlight,
	}
}

// toControllerTransceiverRow projects one controller's radio sample,
// storing the controller's numeric id as entity_id. The Correlator's
// facility join matches controllers on callsign, not on entity_id.
func toControllerTransceiverRow(callsign string, controllerID int64, t feed.TransceiverObservation) dbmodels.TransceiverSample {
	id := strconv.FormatInt(controllerID, 10)
	return dbmodels.TransceiverSample{
		Callsign:      callsign,
		TransceiverID: t.TransceiverID,
		Timestamp:     t.Timestamp,
		Frequency:     t.Frequency,
		Latitude:      t.Latitude,
		Longitude:     t.Longitude,
		HeightMSL:     t.HeightMSL,
		HeightAGL:     t.HeightAGL,
		EntityType:    dbmodels.EntityATC,
		EntityID:      &id,
	}
}
