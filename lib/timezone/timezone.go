package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Taipei")
	if err != nil {
		// taiwan has not observed DST since 1979, a fixed zone is equivalent
		Location = time.FixedZone("CST", 8*60*60)
	}
}

// the portal reports everything in taiwan local time and academic years
// roll over on local dates, so all time math goes through this location
func Now() time.Time {
	return time.Now().In(Location)
}

// ROCYear converts a gregorian year into a Republic of China (Minguo) year,
// which is what the portal uses for academic years (ex. 2017 -> 106).
func ROCYear(year int) int {
	return year - 1911
}

// AcademicTerm returns the academic (ROC) year and semester a point in time falls in.
// The first semester starts in August, the second in February, january belongs
// to the first semester of the previous year.
func AcademicTerm(now time.Time) (year int, semester int) {
	now = now.In(Location)
	month := now.Month()

	if month >= time.August {
		return ROCYear(now.Year()), 1
	}
	if month >= time.February {
		return ROCYear(now.Year() - 1), 2
	}
	return ROCYear(now.Year() - 1), 1
}
