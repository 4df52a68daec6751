package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/poofware/booking-service/internal/controllers"
)

// Handlers groups every controller the router serves.
type Handlers struct {
	Health       *controllers.HealthController
	Booking      *controllers.BookingController
	Message      *controllers.MessageController
	Agent        *controllers.AgentController
	Verification *controllers.VerificationController
	Notification *controllers.NotificationController
}

// NewRouter mounts the health check in the clear and everything else
// behind actorMW.
func NewRouter(h Handlers, actorMW func(http.Handler) http.Handler) *mux.Router {
	router := mux.NewRouter()

	if h.Health != nil {
		router.HandleFunc(Health, h.Health.HealthCheckHandler).Methods(http.MethodGet)
	}

	secured := router.NewRoute().Subrouter()
	secured.Use(actorMW)

	secured.HandleFunc(AgentAvailability, h.Booking.AvailabilityHandler).Methods(http.MethodGet)
	secured.HandleFunc(Bookings, h.Booking.CreateBookingHandler).Methods(http.MethodPost)
	secured.HandleFunc(Waitlist, h.Booking.WaitlistHandler).Methods(http.MethodGet)

	secured.HandleFunc(Appointment, h.Booking.GetAppointmentHandler).Methods(http.MethodGet)
	secured.HandleFunc(AppointmentAccept, h.Booking.AcceptHandler).Methods(http.MethodPost)
	secured.HandleFunc(AppointmentReject, h.Booking.RejectHandler).Methods(http.MethodPost)
	secured.HandleFunc(AppointmentCancel, h.Booking.CancelHandler).Methods(http.MethodPost)
	secured.HandleFunc(AppointmentDone, h.Booking.MarkDoneHandler).Methods(http.MethodPost)
	secured.HandleFunc(AppointmentReassign, h.Booking.ReassignHandler).Methods(http.MethodPost)
	secured.HandleFunc(AppointmentApprove, h.Booking.ApproveReassignmentHandler).Methods(http.MethodPost)
	secured.HandleFunc(AppointmentDecline, h.Booking.DeclineReassignmentHandler).Methods(http.MethodPost)

	secured.HandleFunc(AppointmentMessages, h.Message.SendMessageHandler).Methods(http.MethodPost)
	secured.HandleFunc(AppointmentMessages, h.Message.ListMessagesHandler).Methods(http.MethodGet)
	secured.HandleFunc(AppointmentCanMessage, h.Message.CanMessageHandler).Methods(http.MethodGet)

	secured.HandleFunc(PropertyClose, h.Booking.ClosePropertyHandler).Methods(http.MethodPost)
	secured.HandleFunc(PropertyPriorityQueue, h.Booking.PriorityQueueHandler).Methods(http.MethodGet)

	secured.HandleFunc(AgentSlots, h.Agent.AddSlotHandler).Methods(http.MethodPost)
	secured.HandleFunc(AgentUnavailable, h.Agent.AddUnavailablePeriodHandler).Methods(http.MethodPost)
	secured.HandleFunc(AgentUnavailablePeriod, h.Agent.RemoveUnavailablePeriodHandler).Methods(http.MethodDelete)
	secured.HandleFunc(AgentVacation, h.Agent.SetVacationHandler).Methods(http.MethodPut)

	secured.HandleFunc(VerificationRequest, h.Verification.RequestCodeHandler).Methods(http.MethodPost)
	secured.HandleFunc(VerificationConfirm, h.Verification.ConfirmCodeHandler).Methods(http.MethodPost)

	secured.HandleFunc(Notifications, h.Notification.ListNotificationsHandler).Methods(http.MethodGet)

	secured.HandleFunc(AdminOverride, h.Booking.OverrideAgentHandler).Methods(http.MethodPost)
	secured.HandleFunc(AdminAlerts, h.Notification.ListAlertsHandler).Methods(http.MethodGet)

	return router
}
