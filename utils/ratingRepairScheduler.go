package utils

import (
	"lms/database"
	"lms/models"
	"lms/services/rating"
	"log"

	"github.com/robfig/cron/v3"
)

// InitializeRatingRepairScheduler sets up the nightly rating consistency sweep
func InitializeRatingRepairScheduler() {
	log.Println("[RATING-REPAIR] Initializing rating repair scheduler...")

	c := cron.New()

	// Run daily at 3 AM; review writes keep summaries consistent on their
	// own, this catches anything a crashed process left behind.
	c.AddFunc("0 3 * * *", func() {
		log.Println("[RATING-REPAIR] Running rating consistency sweep...")
		RepairCourseRatings()
	})

	c.Start()
	log.Println("[RATING-REPAIR] Rating repair scheduler started - runs daily at 3 AM")
}

// RepairCourseRatings recomputes every course's rating summary and fixes
// any stored value that diverged from the live review set.
func RepairCourseRatings() {
	db := database.Database.Db

	var courses []models.Course
	if err := db.Where("is_deleted = false").Find(&courses).Error; err != nil {
		log.Printf("[RATING-REPAIR] Error fetching courses: %v", err)
		return
	}

	repaired := 0
	for _, course := range courses {
		summary, err := rating.Recompute(db, course.ID)
		if err != nil {
			log.Printf("[RATING-REPAIR] Error recomputing course %d: %v", course.ID, err)
			continue
		}

		if summary.Average == course.RatingAvg && summary.Count == course.RatingCount {
			continue
		}

		log.Printf("[RATING-REPAIR] Course %d diverged: stored {%.1f, %d}, actual {%.1f, %d}",
			course.ID, course.RatingAvg, course.RatingCount, summary.Average, summary.Count)

		err = db.Model(&models.Course{}).Where("id = ?", course.ID).
			Updates(map[string]interface{}{
				"rating_avg":   summary.Average,
				"rating_count": summary.Count,
			}).Error
		if err != nil {
			log.Printf("[RATING-REPAIR] Error repairing course %d: %v", course.ID, err)
			continue
		}
		repaired++
	}

	log.Printf("[RATING-REPAIR] Sweep finished, %d of %d courses repaired", repaired, len(courses))
}
