package db

var schema = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

CREATE TABLE IF NOT EXISTS shows (
    show_id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    theatre_id UUID NOT NULL,
    movie_id UUID NOT NULL,
    title VARCHAR(255) NOT NULL,
    venue VARCHAR(255) NOT NULL,
    start_time TIMESTAMPTZ NOT NULL,
    price_amount NUMERIC(10, 2) NOT NULL,
    price_currency CHAR(3) NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
    booking_id UUID PRIMARY KEY,
    show_id UUID NOT NULL,
    theatre_id UUID NOT NULL,
    movie_id UUID NOT NULL,
    user_id UUID NOT NULL,
    seats TEXT[] NOT NULL,
    total_amount NUMERIC(10, 2) NOT NULL,
    total_currency CHAR(3) NOT NULL,
    status VARCHAR(32) NOT NULL,
    payment_id UUID,
    idempotency_key VARCHAR(255) NOT NULL UNIQUE,
    booked_at TIMESTAMPTZ NOT NULL,
    version BIGINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS payments (
    payment_id UUID PRIMARY KEY,
    booking_id UUID NOT NULL UNIQUE,
    user_id UUID NOT NULL,
    amount NUMERIC(10, 2) NOT NULL,
    currency CHAR(3) NOT NULL,
    status VARCHAR(32) NOT NULL,
    payment_method VARCHAR(64) NOT NULL,
    transaction_id VARCHAR(255),
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    version BIGINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS seat_reservations (
    show_id UUID NOT NULL,
    seat_label VARCHAR(16) NOT NULL,
    state VARCHAR(8) NOT NULL DEFAULT 'FREE',
    booking_id UUID,
    hold_expires_at TIMESTAMPTZ,
    PRIMARY KEY (show_id, seat_label)
);

CREATE TABLE IF NOT EXISTS tickets (
    ticket_id UUID PRIMARY KEY,
    booking_id UUID NOT NULL UNIQUE,
    user_id UUID NOT NULL,
    show_id UUID NOT NULL,
    theatre_id UUID NOT NULL,
    movie_id UUID NOT NULL,
    seats TEXT[] NOT NULL,
    amount NUMERIC(10, 2) NOT NULL,
    currency CHAR(3) NOT NULL,
    payment_id UUID NOT NULL,
    show_start_time TIMESTAMPTZ NOT NULL,
    issued_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS read_model_seats_sold (
    show_id UUID NOT NULL,
    seat_label VARCHAR(16) NOT NULL,
    booking_id UUID NOT NULL,
    sold_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (show_id, seat_label)
);

CREATE TABLE IF NOT EXISTS events (
    event_id UUID PRIMARY KEY,
    published_at TIMESTAMPTZ NOT NULL,
    event_name VARCHAR(255) NOT NULL,
    event_payload JSONB NOT NULL
);
`
