package httpapi

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/city-weather/internal/common"
	"github.com/i474232898/city-weather/internal/history"
	"github.com/i474232898/city-weather/internal/screen"
	"github.com/i474232898/city-weather/internal/weather"
)

var validate = validator.New()

// Deps are the views and services the routes operate on.
type Deps struct {
	Weather screen.Lookuper
	Result  *screen.Result
	History *screen.History
}

// ErrorHandler renders every error as {"error":true,"message":...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		var q cityQuery
		if err := q.bind(c.Query("city")); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reading, err := deps.Weather.Lookup(c.UserContext(), q.City)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, screen.ErrorMessage)
		}
		return c.JSON(newReadingView(reading))
	})

	v1.Post("/search", func(c *fiber.Ctx) error {
		var body struct {
			City string `json:"city"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		var q cityQuery
		if err := q.bind(body.City); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		st, _ := deps.Result.ShowAsync(q.City)
		return c.Status(fiber.StatusAccepted).JSON(newResultView(st))
	})

	v1.Get("/result", func(c *fiber.Ctx) error {
		return c.JSON(newResultView(deps.Result.State()))
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		entries := deps.History.Focus(c.UserContext())
		views := make([]entryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, newEntryView(e))
		}
		resp := fiber.Map{"entries": views}
		if len(views) == 0 {
			resp["message"] = screen.EmptyHistoryMessage
		}
		return c.JSON(resp)
	})

	v1.Delete("/history", func(c *fiber.Ctx) error {
		confirmed, _ := strconv.ParseBool(c.Query("confirm"))

		err := deps.History.Clear(c.UserContext(), confirmed)
		switch {
		case errors.Is(err, screen.ErrNotConfirmed):
			return fiber.NewError(fiber.StatusBadRequest, "confirm=true is required to clear the history")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo borrar el historial.")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/history/:city/open", func(c *fiber.Ctx) error {
		raw := c.Params("city")
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}
		city, err := deps.History.Open(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		st, _ := deps.Result.ShowAsync(city)
		return c.Status(fiber.StatusAccepted).JSON(newResultView(st))
	})
}

// cityQuery holds the city requested by a client.
type cityQuery struct {
	City string `validate:"required"`
}

func (q *cityQuery) bind(raw string) error {
	q.City = strings.TrimSpace(raw)
	if err := validate.Struct(q); err != nil {
		return screen.ErrEmptyCity
	}
	return nil
}

// readingView is a reading plus its display labels.
type readingView struct {
	weather.Reading
	Labels readingLabels `json:"labels"`
}

type readingLabels struct {
	Description string `json:"description"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feelsLike"`
	TempMin     string `json:"tempMin"`
	TempMax     string `json:"tempMax"`
	Visibility  string `json:"visibility"`
	Sunrise     string `json:"sunrise"`
	Sunset      string `json:"sunset"`
	IconURL     string `json:"iconUrl"`
}

func newReadingView(r weather.Reading) readingView {
	return readingView{
		Reading: r,
		Labels: readingLabels{
			Description: common.Capitalize(r.Description),
			Temperature: common.FormatTemp(r.Temperature),
			FeelsLike:   common.FormatTemp(r.FeelsLike),
			TempMin:     common.FormatTemp(r.TempMin),
			TempMax:     common.FormatTemp(r.TempMax),
			Visibility:  common.FormatVisibility(r.Visibility),
			Sunrise:     common.FormatClock(r.Sunrise, time.Local),
			Sunset:      common.FormatClock(r.Sunset, time.Local),
			IconURL:     common.IconURL(r.Icon, 4),
		},
	}
}

type resultView struct {
	Phase     screen.Phase `json:"phase"`
	City      string       `json:"city,omitempty"`
	Reading   *readingView `json:"reading,omitempty"`
	Error     string       `json:"error,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func newResultView(st screen.State) resultView {
	v := resultView{
		Phase:     st.Phase,
		City:      st.City,
		Error:     st.Error,
		UpdatedAt: st.UpdatedAt,
	}
	if st.Reading != nil {
		rv := newReadingView(*st.Reading)
		v.Reading = &rv
	}
	return v
}

type entryView struct {
	history.Entry
	TempLabel string `json:"tempLabel"`
	IconURL   string `json:"iconUrl"`
}

func newEntryView(e history.Entry) entryView {
	return entryView{
		Entry:     e,
		TempLabel: common.FormatTemp(e.Temp),
		IconURL:   common.IconURL(e.Icon, 2),
	}
}
