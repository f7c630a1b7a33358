package ap

import (
	"context"
	"fmt"
	"regexp"

	"kuasap-backend/lib/htmlutil"
	"kuasap-backend/lib/scrapers/kuasap"
	"kuasap-backend/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

type Semester struct {
	// Value is formatted as "<year>,<semester>", ex. "106,1".
	Value    string
	Text     string
	Selected bool
}

type SemesterList struct {
	Semesters []Semester
	Default   Semester
}

var semesterValueRegex = regexp.MustCompile(`^\d+,\d+$`)

func parseSemesters(options []htmlutil.Option) (SemesterList, error) {
	list := SemesterList{}
	for _, opt := range options {
		if !semesterValueRegex.MatchString(opt.Value) {
			continue
		}
		semester := Semester{
			Value:    opt.Value,
			Text:     opt.Text,
			Selected: opt.Selected,
		}
		list.Semesters = append(list.Semesters, semester)
		if semester.Selected && !list.Default.Selected {
			list.Default = semester
		}
	}
	if len(list.Semesters) == 0 {
		return SemesterList{}, fmt.Errorf("%w: no semester options", kuasap.ErrMalformedResponse)
	}
	if !list.Default.Selected {
		list.Default = list.Semesters[0]
	}
	return list, nil
}

// calendarSemesters lists the regular semesters of the last SemesterYears academic
// years, newest first, selecting the current one.
func (s *Service) calendarSemesters() SemesterList {
	year, semester := timezone.AcademicTerm(s.now())

	list := SemesterList{}
	for y := year; y > year-s.opts.SemesterYears; y-- {
		for sem := 2; sem >= 1; sem-- {
			if y == year && sem > semester {
				continue
			}
			entry := Semester{
				Value:    fmt.Sprintf("%d,%d", y, sem),
				Text:     fmt.Sprintf("%d學年度第%d學期", y, sem),
				Selected: y == year && sem == semester,
			}
			list.Semesters = append(list.Semesters, entry)
			if entry.Selected {
				list.Default = entry
			}
		}
	}
	return list
}

func (s *Service) semesterSession(ctx context.Context) (string, error) {
	s.semesterLock.Lock()
	defer s.semesterLock.Unlock()

	if s.semesterToken != "" && s.registry.IsValid(s.semesterToken) {
		return s.semesterToken, nil
	}
	token, err := s.Login(ctx, s.opts.SemesterAccount.Username, s.opts.SemesterAccount.Password)
	if err != nil {
		return "", err
	}
	s.semesterToken = token
	return token, nil
}

// Semesters returns the semesters offered by the portal and its default.
func (s *Service) Semesters(ctx context.Context) (SemesterList, error) {
	ctx, span := tracer.Start(ctx, "Semesters")
	defer span.End()

	if s.opts.SemesterAccount.Username == "" {
		return s.calendarSemesters(), nil
	}

	token, err := s.semesterSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login lookup account")
		return SemesterList{}, err
	}
	payload, err := s.Query(ctx, token, s.opts.SemesterQuery, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query semesters")
		return SemesterList{}, err
	}
	options, err := htmlutil.ParseOptions(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse semesters")
		return SemesterList{}, fmt.Errorf("%w: %s", kuasap.ErrMalformedResponse, err.Error())
	}
	list, err := parseSemesters(options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse semesters")
		return SemesterList{}, err
	}
	return list, nil
}
