package room

import "context"

func (r *Room) Code() string { return r.cfg.Code }

// Expose the inbox so tests or the WS layer can send messages directly.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the room loop has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

// Close stops the room. It is safe to call more than once.
func (r *Room) Close() { r.cancel() }

// Join attaches a client and returns the seat bound to it. The outbox must
// be buffered; the room closes it when the client is detached.
func (r *Room) Join(ctx context.Context, msg Join) (Seat, error) {
	msg.Reply = make(chan JoinResult, 1)
	if err := r.send(ctx, msg); err != nil {
		return Seat{}, err
	}
	res, err := await(ctx, r, msg.Reply)
	if err != nil {
		return Seat{}, err
	}
	return res.Seat, res.Err
}

// Do runs one command for the player attached as clientID.
func (r *Room) Do(ctx context.Context, msg FromClient) error {
	msg.Reply = make(chan error, 1)
	if err := r.send(ctx, msg); err != nil {
		return err
	}
	res, err := await(ctx, r, msg.Reply)
	if err != nil {
		return err
	}
	return res
}

// Leave detaches a client. The player is marked disconnected once their
// last client is gone.
func (r *Room) Leave(clientID string) {
	select {
	case r.inbox <- Leave{ClientID: clientID}:
	case <-r.done:
	}
}

func (r *Room) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := r.send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	return await(ctx, r, reply)
}

func (r *Room) send(ctx context.Context, m Msg) error {
	select {
	case r.inbox <- m:
		return nil
	case <-r.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, r *Room, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-r.done:
		// The loop may have answered just before exiting.
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
