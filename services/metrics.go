package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yayago_bookings_created_total",
		Help: "Bookings created, any initial status.",
	})

	bookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yayago_booking_transitions_total",
		Help: "State machine transitions by target status.",
	}, []string{"to"})

	settlementLegs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yayago_settlement_legs_total",
		Help: "Settlement money-movement legs by leg and outcome.",
	}, []string{"leg", "outcome"})
)
