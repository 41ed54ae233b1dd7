package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "Pending"
	StatusCompleted PaymentStatus = "Completed"
	StatusFailed    PaymentStatus = "Failed"
)

type Order struct {
	ID            primitive.ObjectID `bson:"_id"`
	UserID        primitive.ObjectID `bson:"userId"`
	RestaurantID  primitive.ObjectID `bson:"restaurantId"`
	OrderItems    []OrderItem        `bson:"orderItems"`
	PaymentStatus PaymentStatus      `bson:"paymentStatus"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

type OrderItem struct {
	FoodID   primitive.ObjectID `bson:"foodId"`
	Quantity int                `bson:"quantity"`
	Price    float64            `bson:"price"`
}

type User struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
	FCM      string             `bson:"fcm"`
}

type Food struct {
	ID       primitive.ObjectID `bson:"_id"`
	ImageURL []string           `bson:"imageUrl"`
}

type Restaurant struct {
	ID    primitive.ObjectID `bson:"_id"`
	Owner primitive.ObjectID `bson:"owner"`
}

// HasDeviceToken reports whether a push can be attempted for this user.
// "none" is the client's placeholder for an unregistered device.
func (u User) HasDeviceToken() bool {
	return u.FCM != "" && u.FCM != "none"
}
