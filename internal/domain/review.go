package domain

import "time"

// Review is a customer review embedded in a product
type Review struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id,omitempty"`
	UserName           string    `json:"user_name,omitempty"`
	Rating             *int      `json:"rating"`
	Title              string    `json:"title,omitempty"`
	Comment            string    `json:"comment,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
}

// Clone returns a deep copy of the review
func (r *Review) Clone() *Review {
	if r == nil {
		return nil
	}

	cp := *r
	if r.Rating != nil {
		rating := *r.Rating
		cp.Rating = &rating
	}
	return &cp
}

// AggregateRatings computes the average rating and review count.
// Reviews without a rating are skipped; an empty list yields (0, 0).
func AggregateRatings(reviews []*Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}

	sum := 0
	for _, r := range reviews {
		if r != nil && r.Rating != nil {
			sum += *r.Rating
		}
	}

	return float64(sum) / float64(len(reviews)), len(reviews)
}
